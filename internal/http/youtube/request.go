package youtube

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"google.golang.org/api/youtube/v3"
)

const (
	UploadScope = youtube.YoutubeUploadScope

	// DefaultCategoryID is "People & Blogs".
	DefaultCategoryID = "22"

	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
)

var validate = validator.New()

// UploadRequest describes a single video to be published.
type UploadRequest struct {
	FilePath      string   `validate:"required"`
	Title         string   `validate:"required,max=100"`
	Description   string   `validate:"max=5000"`
	CategoryID    string   `validate:"required,numeric"`
	Tags          []string `validate:"dive,required"`
	PrivacyStatus string   `validate:"required,oneof=public private unlisted"`
}

func (req UploadRequest) Validate() error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("upload request is invalid: %w", err)
	}

	return nil
}

// video builds the resource body sent when initiating the upload.
func (req UploadRequest) video() *youtube.Video {
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  req.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: req.PrivacyStatus,
		},
	}
}
