package posts

import (
	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/utils/middleware"
	"github.com/campusgate/campusgate-api/utils/response"
	"github.com/campusgate/campusgate-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PostsHandler serves the announcement feed
type PostsHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewPostsHandler creates a new posts handler
func NewPostsHandler(db *gorm.DB) *PostsHandler {
	return &PostsHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreatePostRequest creates a feed post
type CreatePostRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category"`
	Scope    string `json:"scope" validate:"omitempty,oneof=global school department"`
}

// Create publishes a post scoped to the author's tenancy
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	scope := model.PostScope(req.Scope)
	if scope == "" {
		scope = model.PostScopeGlobal
	}

	category := req.Category
	if category == "" {
		category = "University Update"
	}

	post := model.Post{
		AuthorID:     user.ID,
		AuthorName:   user.Name,
		Title:        validation.SanitizeString(req.Title),
		Content:      validation.SanitizeString(req.Content),
		Category:     category,
		Scope:        scope,
		UniversityID: user.UniversityID,
		SchoolID:     user.SchoolID,
		DepartmentID: user.DepartmentID,
	}

	if err := h.db.Create(&post).Error; err != nil {
		return response.InternalServerError(c, "Failed to create post")
	}

	return response.Created(c, post)
}

// List returns the feed visible to the caller, newest first. Global posts of
// the caller's university are always visible; school and department posts only
// inside the matching tenant.
func (h *PostsHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	query := h.db.Model(&model.Post{}).
		Where("university_id = ?", user.UniversityID).
		Where(
			h.db.Where("scope = ?", model.PostScopeGlobal).
				Or("scope = ? AND school_id = ?", model.PostScopeSchool, user.SchoolID).
				Or("scope = ? AND department_id = ?", model.PostScopeDepartment, user.DepartmentID),
		)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count posts")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var posts []model.Post
	if err := query.
		Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Limit(pagination.PerPage).
		Find(&posts).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch posts")
	}

	return response.Paginated(c, posts, pagination)
}

// CommentRequest adds a comment to a post
type CommentRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// Comment adds a comment to a post
func (h *PostsHandler) Comment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	postID, err := c.ParamsInt("id")
	if err != nil || postID < 1 {
		return response.BadRequest(c, "Invalid post id")
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var post model.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to fetch post")
	}

	comment := model.PostComment{
		PostID:     post.ID,
		AuthorID:   user.ID,
		AuthorRole: user.Role,
		Content:    validation.SanitizeString(req.Content),
	}

	if err := h.db.Create(&comment).Error; err != nil {
		return response.InternalServerError(c, "Failed to add comment")
	}

	return response.Created(c, comment)
}

// Delete removes a post; authors can delete their own, registrar any
func (h *PostsHandler) Delete(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	postID, err := c.ParamsInt("id")
	if err != nil || postID < 1 {
		return response.BadRequest(c, "Invalid post id")
	}

	var post model.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to fetch post")
	}

	if post.AuthorID != user.ID && user.Role != model.RoleRegistrar {
		return response.Forbidden(c, "You can only delete your own posts")
	}

	if err := h.db.Delete(&post).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete post")
	}

	return response.SuccessWithMessage(c, "Post deleted successfully", nil)
}
