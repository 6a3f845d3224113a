package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ProfileFollow makes the caller follow the author and returns to the profile.
// Following yourself or following twice changes nothing.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.followService.Follow(c.UserContext(), viewerID(c), username); err != nil {
		return err
	}
	return c.Redirect("/"+username+"/", fiber.StatusFound)
}

// ProfileUnfollow removes the caller's follow edge and returns to the profile.
// Unfollowing an author you do not follow is logged and otherwise ignored.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.GetUserByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}

	if err := s.followService.Unfollow(ctx, viewerID(c), author.Username); err != nil {
		if !models.IsNotFound(err) {
			return err
		}
		middleware.Logger.WarnContext(ctx, "unfollow without follow edge",
			"author", author.Username,
		)
	}
	return c.Redirect("/"+author.Username+"/", fiber.StatusFound)
}
