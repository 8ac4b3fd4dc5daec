// Package controllers handles HTTP request handling
package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/models/dto"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/middleware"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

// actor returns the authenticated caller or writes a 401
func actor(ctx *gin.Context) (auth.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return auth.Identity{}, false
	}
	return identity, true
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := helpers.FormatDate(*t)
	return &s
}

func toUserResponse(u *models.User) dto.UserResponse {
	resp := dto.UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toTokenResponse(t *auth.IssuedToken) dto.TokenResponse {
	return dto.TokenResponse{AccessToken: t.AccessToken, TokenType: "Bearer", ExpiresIn: t.ExpiresIn}
}

func toAuthResponse(r *services.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{Token: toTokenResponse(r.Token), User: toUserResponse(r.User)}
}

func toBorrowRecordResponse(r *models.UserBook, today time.Time) dto.BorrowRecordResponse {
	return dto.BorrowRecordResponse{
		ID:         r.ID,
		BookTitle:  r.BookTitle,
		Author:     r.Author,
		BorrowDate: helpers.FormatDate(r.BorrowDate),
		DueDate:    helpers.FormatDate(r.DueDate),
		ReturnDate: formatOptionalDate(r.ReturnDate),
		IsReturned: r.IsReturned,
		IsOverdue:  r.IsOverdue(today),
		Notes:      r.Notes,
	}
}

func toBookResponse(b *models.Book) dto.BookResponse {
	return dto.BookResponse{ID: b.ID, Title: b.Title, Author: b.Author, Availability: b.Availability}
}

func toBookResponses(books []*models.Book) []dto.BookResponse {
	out := make([]dto.BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

func toLoanResponse(l *models.BorrowedBook, title, author string) dto.LoanResponse {
	return dto.LoanResponse{
		ID:         l.ID,
		BookID:     l.BookID,
		BookTitle:  title,
		Author:     author,
		BorrowDate: helpers.FormatDate(l.BorrowDate),
		DueDate:    helpers.FormatDate(l.DueDate),
		ReturnDate: formatOptionalDate(l.ReturnDate),
	}
}

func toReviewResponse(r *models.Review, username string) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:         r.ID,
		BookID:     r.BookID,
		UserID:     r.UserID,
		Username:   username,
		Rating:     r.Rating,
		Comment:    r.Comment,
		DatePosted: r.DatePosted.UTC().Format(time.RFC3339),
	}
}

func toCommentResponse(c *models.ForumComment, username string) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         c.ID,
		PostID:     c.PostID,
		UserID:     c.UserID,
		Username:   username,
		Content:    c.Content,
		DatePosted: c.DatePosted.UTC().Format(time.RFC3339),
	}
}

func toPostResponse(p *services.PostView) dto.PostResponse {
	comments := make([]dto.CommentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, toCommentResponse(&c.ForumComment, c.Username))
	}
	return dto.PostResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Username:   p.Username,
		Title:      p.Title,
		Content:    p.Content,
		DatePosted: p.DatePosted.UTC().Format(time.RFC3339),
		PhotoURL:   p.PhotoURL,
		Comments:   comments,
	}
}

func toLoanResponses(loans []*repositories.LoanDetails) []dto.LoanResponse {
	out := make([]dto.LoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanResponse(&l.BorrowedBook, l.BookTitle, l.BookAuthor))
	}
	return out
}
