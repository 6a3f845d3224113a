// Package validation checks submitted forms and turns them into normalized inputs.
package validation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"inkwell/internal/media"
	"inkwell/internal/models"
)

// Field messages shown next to form inputs.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// GroupLookup resolves a group by primary key. It is the only storage access validators need.
type GroupLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
}

// PostForm is the raw post submission.
type PostForm struct {
	Text  string
	Group string
	// Image holds the uploaded bytes; nil when no file was sent.
	Image []byte
	// ClearImage asks to drop the currently attached image on edit.
	ClearImage bool
}

// PostInput is a validated post. The author is filled in by the caller.
type PostInput struct {
	Text       string
	GroupID    *uint
	Image      []byte
	ClearImage bool
}

// CommentForm is the raw comment submission.
type CommentForm struct {
	Text string
}

// CommentInput is a validated comment.
type CommentInput struct {
	Text string
}

// ValidatePostForm checks a post form. Errors are reported per field in a
// VALIDATION_ERROR; storage failures during the group lookup are returned as-is.
func ValidatePostForm(ctx context.Context, form PostForm, groups GroupLookup, maxImageBytes int64) (*PostInput, error) {
	fields := map[string]string{}
	in := &PostInput{ClearImage: form.ClearImage}

	if strings.TrimSpace(form.Text) == "" {
		fields["text"] = MsgRequired
	} else {
		in.Text = form.Text
	}

	groupID, err := parseGroup(ctx, form.Group, groups)
	if err != nil {
		if !models.IsNotFound(err) && !models.IsValidation(err) {
			return nil, err
		}
		fields["group"] = MsgInvalidChoice
	}
	in.GroupID = groupID

	if form.Image != nil {
		switch {
		case maxImageBytes > 0 && int64(len(form.Image)) > maxImageBytes:
			fields["image"] = fmt.Sprintf("Ensure the file is no larger than %d MB.", maxImageBytes/(1024*1024))
		case len(form.Image) == 0:
			fields["image"] = "The submitted file is empty."
		default:
			if _, err := media.Detect(form.Image); err != nil {
				fields["image"] = MsgInvalidImage
			} else {
				in.Image = form.Image
				in.ClearImage = false
			}
		}
	}

	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}
	return in, nil
}

func parseGroup(ctx context.Context, raw string, groups GroupLookup) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, models.NewValidationError("invalid group id")
	}
	group, err := groups.GetByID(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	return &group.ID, nil
}

// ValidateCommentForm checks a comment form.
func ValidateCommentForm(form CommentForm) (*CommentInput, error) {
	if strings.TrimSpace(form.Text) == "" {
		return nil, models.NewFieldValidationError(map[string]string{"text": MsgRequired})
	}
	return &CommentInput{Text: form.Text}, nil
}
