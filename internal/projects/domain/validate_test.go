package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ProjectInput {
	paid := true
	return ProjectInput{
		Title:       "Portfolio Site",
		Description: "A marketing site",
		Image:       "https://cdn.example.com/cover.png",
		Tags:        []string{"web"},
		Category:    "Web",
		URL:         "https://example.com",
		Client:      "Acme",
		Year:        "2024",
		IsPaid:      &paid,
	}
}

func messagesByPath(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	details, ok := AsValidationErrors(err)
	require.True(t, ok, "expected ValidationErrors, got %T", err)

	out := make(map[string]string, len(details))
	for _, fe := range details {
		out[fe.Path] = fe.Message
	}
	return out
}

func TestProjectInput_Validate(t *testing.T) {
	t.Run("valid payload passes", func(t *testing.T) {
		in := validInput()
		assert.NoError(t, in.Validate())
	})

	t.Run("required fields", func(t *testing.T) {
		in := ProjectInput{}
		msgs := messagesByPath(t, in.Validate())

		assert.Equal(t, "Title is required", msgs["title"])
		assert.Equal(t, "Description is required", msgs["description"])
		assert.Equal(t, "Project image is required", msgs["image"])
		assert.Equal(t, "At least one tag is required", msgs["tags"])
		assert.Equal(t, "Category is required", msgs["category"])
		assert.Equal(t, "Project URL is required", msgs["url"])
		assert.Equal(t, "Client name is required", msgs["client"])
		assert.Equal(t, "Year must be 4 digits", msgs["year"])
		assert.Equal(t, "isPaid is required", msgs["isPaid"])
	})

	t.Run("length bounds", func(t *testing.T) {
		in := validInput()
		in.Title = strings.Repeat("x", 101)
		in.Description = strings.Repeat("x", 501)
		in.Year = "24"

		msgs := messagesByPath(t, in.Validate())
		assert.Equal(t, "Title is too long", msgs["title"])
		assert.Equal(t, "Description is too long", msgs["description"])
		assert.Equal(t, "Year must be 4 digits", msgs["year"])
	})

	t.Run("url shape", func(t *testing.T) {
		in := validInput()
		in.Image = "not-a-url"
		in.LiveURL = "also not"

		msgs := messagesByPath(t, in.Validate())
		assert.Equal(t, "Must be a valid URL", msgs["image"])
		assert.Equal(t, "Must be a valid URL", msgs["liveUrl"])
	})

	t.Run("gallery entries must be urls", func(t *testing.T) {
		in := validInput()
		in.Gallery = []string{"https://ok.example.com/a.png", "nope"}

		msgs := messagesByPath(t, in.Validate())
		assert.Equal(t, "Must be a valid URL", msgs["gallery[1]"])
	})

	t.Run("status must be a known value", func(t *testing.T) {
		in := validInput()
		in.Status = "published"

		msgs := messagesByPath(t, in.Validate())
		assert.Equal(t, "Invalid status", msgs["status"])
	})

	t.Run("empty optional urls are allowed", func(t *testing.T) {
		in := validInput()
		in.LiveURL = ""
		in.VideoURL = ""
		in.GithubURL = ""
		assert.NoError(t, in.Validate())
	})
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusActive, StatusCompleted, StatusArchived} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("published").Valid())
	assert.False(t, Status("").Valid())
}

func TestProjectCurrentStatus(t *testing.T) {
	p := Project{}
	assert.Equal(t, StatusDraft, p.CurrentStatus(), "unset status reads as draft")

	p.Status = StatusArchived
	assert.Equal(t, StatusArchived, p.CurrentStatus())
}
