package server

import (
	"fmt"

	"inkwell/internal/auth"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/validation"
	"inkwell/internal/views"

	"github.com/gofiber/fiber/v2"
)

// Index renders the latest posts. The response is shared through the page
// cache, so it is rendered without the signed-in navigation.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.feedService.Latest(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return c.Render("index", fiber.Map{"page": page})
}

// GroupPosts renders the posts of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.feedService.Group(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, "group", fiber.Map{"group": group, "page": page})
}

// FollowIndex renders posts written by the authors the caller follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.Followed(c.UserContext(), viewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, "follow", fiber.Map{"page": page})
}

// Profile renders an author's posts with the follow counters.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.GetUserByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	page, err := s.feedService.Author(ctx, author.ID, c.Query("page"))
	if err != nil {
		return err
	}
	stats, err := s.followService.Stats(ctx, author.ID, viewerID(c), page.Count)
	if err != nil {
		return err
	}
	return s.render(c, "profile", fiber.Map{
		"author": author,
		"stats":  stats,
		"page":   page,
	})
}

// PostDetail renders one post with its comments.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	return s.renderDetail(c, post, "", nil)
}

// NewPostForm renders the empty post form.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, postFormPage{action: "/new/"})
}

// CreatePost validates the submitted form and publishes the post as the caller.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	principal := auth.FromCtx(c)
	form, err := s.readPostForm(c, principal)
	if err != nil {
		return err
	}

	in, err := validation.ValidatePostForm(c.UserContext(), form, s.groupRepo, s.config.ImageMaxUploadBytes())
	if err != nil {
		if !models.IsValidation(err) {
			return err
		}
		return s.renderPostForm(c, postFormPage{
			action: "/new/",
			form:   views.PostFormView{Text: form.Text, GroupID: parseOptionalID(form.Group)},
			errors: models.FieldErrors(err),
		})
	}

	if _, err := s.postService.CreatePost(c.UserContext(), principal.ID, in); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// EditPostForm renders the pre-filled form. Anyone but the author gets the
// post detail page instead.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	if !service.CanEdit(post, viewerID(c)) {
		return s.renderDetail(c, post, "", nil)
	}
	return s.renderPostForm(c, postFormPage{
		editing: true,
		action:  editURL(post),
		form:    views.PostFormView{Text: post.Text, GroupID: post.GroupID, Image: post.Image},
	})
}

// EditPost saves the author's changes and returns to the post. Submissions
// from anyone else leave the post untouched and render its detail page.
func (s *Server) EditPost(c *fiber.Ctx) error {
	post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	principal := auth.FromCtx(c)
	if !service.CanEdit(post, principal.ID) {
		return s.renderDetail(c, post, "", nil)
	}

	form, err := s.readPostForm(c, principal)
	if err != nil {
		return err
	}
	in, err := validation.ValidatePostForm(c.UserContext(), form, s.groupRepo, s.config.ImageMaxUploadBytes())
	if err != nil {
		if !models.IsValidation(err) {
			return err
		}
		return s.renderPostForm(c, postFormPage{
			editing: true,
			action:  editURL(post),
			form:    views.PostFormView{Text: form.Text, GroupID: parseOptionalID(form.Group), Image: post.Image},
			errors:  models.FieldErrors(err),
		})
	}

	if _, err := s.postService.UpdatePost(c.UserContext(), principal.ID, post, in); err != nil {
		return err
	}
	return c.Redirect(detailURL(post), fiber.StatusFound)
}

// AddComment attaches a comment by the caller to the post.
func (s *Server) AddComment(c *fiber.Ctx) error {
	post, err := s.lookupPost(c)
	if err != nil {
		return err
	}

	form := validation.CommentForm{Text: c.FormValue("text")}
	in, err := validation.ValidateCommentForm(form)
	if err != nil {
		if !models.IsValidation(err) {
			return err
		}
		return s.renderDetail(c, post, form.Text, models.FieldErrors(err))
	}

	if _, err := s.commentService.AddComment(c.UserContext(), viewerID(c), post.ID, in); err != nil {
		return err
	}
	return c.Redirect(detailURL(post), fiber.StatusFound)
}

func (s *Server) lookupPost(c *fiber.Ctx) (*models.Post, error) {
	id, err := parsePostID(c)
	if err != nil {
		return nil, err
	}
	return s.postService.GetPost(c.UserContext(), c.Params("username"), id)
}

// renderDetail renders the post page, optionally with a rejected comment.
func (s *Server) renderDetail(c *fiber.Ctx, post *models.Post, commentText string, commentErrors map[string]string) error {
	ctx := c.UserContext()

	comments, err := s.commentService.ListForPost(ctx, post.ID)
	if err != nil {
		return err
	}
	postCount, err := s.postRepo.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	stats, err := s.followService.Stats(ctx, post.AuthorID, viewerID(c), postCount)
	if err != nil {
		return err
	}

	return s.render(c, "post", fiber.Map{
		"post":          post,
		"author":        &post.Author,
		"stats":         stats,
		"canEdit":       service.CanEdit(post, viewerID(c)),
		"comments":      comments,
		"commentText":   commentText,
		"commentErrors": commentErrors,
	})
}

type postFormPage struct {
	editing bool
	action  string
	form    views.PostFormView
	errors  map[string]string
}

func (s *Server) renderPostForm(c *fiber.Ctx, p postFormPage) error {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"editing":       p.editing,
		"action":        p.action,
		"form":          p.form,
		"groups":        groups,
		"errors":        p.errors,
		"imagesEnabled": s.featureFlags.Enabled(featureflags.PostImages, viewerID(c)),
	}
	if len(p.errors) > 0 {
		data["formError"] = models.NewFieldValidationError(p.errors).Message
	}
	return s.render(c, "new", data)
}

// readPostForm collects the submitted fields. Image uploads are ignored
// while the post_images flag is off for the caller.
func (s *Server) readPostForm(c *fiber.Ctx, principal *auth.Principal) (validation.PostForm, error) {
	form := validation.PostForm{
		Text:  c.FormValue("text"),
		Group: c.FormValue("group"),
	}
	if !s.featureFlags.Enabled(featureflags.PostImages, principal.ID) {
		return form, nil
	}

	form.ClearImage = c.FormValue("image_clear") != ""
	image, err := readUpload(c, "image", s.config.ImageMaxUploadBytes())
	if err != nil {
		return form, fmt.Errorf("read image upload: %w", err)
	}
	form.Image = image
	return form, nil
}

func detailURL(post *models.Post) string {
	return fmt.Sprintf("/%s/%d/", post.Author.Username, post.ID)
}

func editURL(post *models.Post) string {
	return detailURL(post) + "edit/"
}
