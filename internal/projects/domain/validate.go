package domain

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProjectInput is the client payload for create and full-replace update.
// Bounds mirror the public admin form: short text fields, URL-shaped links,
// a four-character year, at least one tag.
type ProjectInput struct {
	Title           string   `json:"title" validate:"required,max=100"`
	Description     string   `json:"description" validate:"required,max=500"`
	Image           string   `json:"image" validate:"required,url"`
	Gallery         []string `json:"gallery" validate:"omitempty,dive,url"`
	Tags            []string `json:"tags" validate:"required,min=1"`
	Category        string   `json:"category" validate:"required"`
	URL             string   `json:"url" validate:"required,url"`
	Client          string   `json:"client" validate:"required"`
	Year            string   `json:"year" validate:"required,len=4"`
	IsPaid          *bool    `json:"isPaid" validate:"required"`
	Price           *float64 `json:"price"`
	PreviewFeatures []string `json:"previewFeatures"`
	LiveURL         string   `json:"liveUrl" validate:"omitempty,url"`
	VideoURL        string   `json:"videoUrl" validate:"omitempty,url"`
	GithubURL       string   `json:"githubUrl" validate:"omitempty,url"`

	// Only honored by the full-replace update path.
	Status             Status `json:"status" validate:"omitempty,oneof=draft active completed archived"`
	StatusChangeReason string `json:"statusChangeReason"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages overrides the generic per-tag messages where the UI shows a
// friendlier one.
var fieldMessages = map[string]string{
	"title:required":       "Title is required",
	"title:max":            "Title is too long",
	"description:required": "Description is required",
	"description:max":      "Description is too long",
	"image:required":       "Project image is required",
	"tags:required":        "At least one tag is required",
	"tags:min":             "At least one tag is required",
	"category:required":    "Category is required",
	"url:required":         "Project URL is required",
	"client:required":      "Client name is required",
	"year:required":        "Year must be 4 digits",
	"year:len":             "Year must be 4 digits",
	"isPaid:required":      "isPaid is required",
	"status:oneof":         "Invalid status",
}

// Validate checks in against the schema and returns ValidationErrors with
// one {path, message} per failing field.
func (in *ProjectInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		path := strings.TrimPrefix(fe.Namespace(), "ProjectInput.")
		out = append(out, FieldError{Path: path, Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	key := fe.Field() + ":" + fe.Tag()
	// Nested paths (gallery[0]) fall through to the generic messages.
	if msg, ok := fieldMessages[key]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url":
		return "Must be a valid URL"
	case "max":
		return fe.Field() + " is too long"
	case "min":
		return fe.Field() + " is too short"
	case "len":
		return fe.Field() + " has the wrong length"
	case "oneof":
		return "Invalid value"
	}
	return "Invalid value"
}
