package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stundenapp/stundenapp-back/internal/auth"
	"github.com/stundenapp/stundenapp-back/internal/db"
	"github.com/stundenapp/stundenapp-back/internal/models"
	"github.com/stundenapp/stundenapp-back/internal/search"
)

const dateLayout = "2006-01-02"

// Handler exposes the core operations over HTTP. It is deliberately thin:
// parsing and status codes here, everything else in the core packages.
type Handler struct {
	Facade *search.Facade
}

func parseWindow(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	from, err = time.ParseInLocation(dateLayout, c.Query("from"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing from date"})
		return from, to, false
	}
	to, err = time.ParseInLocation(dateLayout, c.Query("to"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing to date"})
		return from, to, false
	}
	// include the whole last day
	to = to.Add(24*time.Hour - time.Second)
	return from, to, true
}

// GetTimetable godoc
// @Summary      Get the user's merged timetable
// @Description  Syncs the requested window against the upstream if stale, then returns the user's lessons grouped by day
// @Tags         lessons
// @Produce      json
// @Param        from  query  string  true  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  true  "End date (YYYY-MM-DD)"
// @Success      200 {object} map[string][]models.Lesson
// @Failure      400 {object} map[string]string
// @Failure      502 {object} map[string]string
// @Security     BearerAuth
// @Router       /timetable [get]
func (h *Handler) GetTimetable(c *gin.Context) {
	username := c.GetString(auth.CtxUsername)
	creds, ok := auth.CredentialsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	user, err := db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	var tokens []string
	for _, course := range user.Courses {
		tokens = append(tokens, course.CourseKey)
	}

	lessons, err := h.Facade.Timetable(c.Request.Context(), creds, search.TimetableRequest{
		From:            from,
		To:              to,
		PrimaryCourse:   user.PrimaryCourseNr,
		SecondaryCourse: user.SecondaryCourseNr,
		CourseTokens:    tokens,
	})
	if err != nil {
		log.Println("timetable:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch timetable"})
		return
	}

	// Group lessons by day, already sorted by start time.
	grouped := make(map[string][]models.Lesson)
	for _, l := range lessons {
		day := l.StartTime.Format(dateLayout)
		grouped[day] = append(grouped[day], l)
	}
	c.JSON(http.StatusOK, grouped)
}

// SearchLessons godoc
// @Summary      Free-text lesson search
// @Description  Searches subject, course, teacher and room fields over a date window
// @Tags         lessons
// @Produce      json
// @Param        q                  query  string  true   "Query text"
// @Param        from               query  string  true   "Start date (YYYY-MM-DD)"
// @Param        to                 query  string  true   "End date (YYYY-MM-DD)"
// @Param        order              query  string  false  "asc or desc"
// @Param        include_cancelled  query  bool    false  "Include cancelled lessons"
// @Success      200 {array} models.Lesson
// @Failure      400 {object} map[string]string
// @Failure      502 {object} map[string]string
// @Security     BearerAuth
// @Router       /search [get]
func (h *Handler) SearchLessons(c *gin.Context) {
	creds, ok := auth.CredentialsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
		return
	}
	text := c.Query("q")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query text"})
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	lessons, err := h.Facade.Search(c.Request.Context(), creds, search.SearchRequest{
		Text:             text,
		From:             from,
		To:               to,
		IncludeCancelled: c.Query("include_cancelled") == "true",
		Desc:             c.Query("order") == "desc",
	})
	if err != nil {
		log.Println("search:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, lessons)
}

// UpdateCoursesRequest is the request body for updating class preferences
type UpdateCoursesRequest struct {
	PrimaryCourse   int `json:"primary_course"`
	SecondaryCourse int `json:"secondary_course"`
}

// UpdateCourses godoc
// @Summary      Update the user's primary and secondary class
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body  UpdateCoursesRequest  true  "Class ids"
// @Success      200   {object} map[string]string
// @Failure      400   {object} map[string]string
// @Failure      500   {object} map[string]string
// @Security     BearerAuth
// @Router       /user/courses [patch]
func UpdateCourses(c *gin.Context) {
	username := c.GetString(auth.CtxUsername)

	var req UpdateCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := db.UpdateUserCourses(c.Request.Context(), username, req.PrimaryCourse, req.SecondaryCourse); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update courses"})
		return
	}
	c.JSON(200, gin.H{"message": "Courses updated"})
}

// GetUserCourses godoc
// @Summary      Get the user's course subscriptions
// @Tags         user
// @Produce      json
// @Success      200  {array}  models.UserCourse
// @Failure      500  {object} map[string]string
// @Security     BearerAuth
// @Router       /user/courses [get]
func GetUserCourses(c *gin.Context) {
	username := c.GetString(auth.CtxUsername)
	courses, err := db.GetUserCourses(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}
	c.JSON(200, courses)
}

// AddUserCourseRequest is the request body for subscribing to a course key
type AddUserCourseRequest struct {
	CourseKey string `json:"course_key" binding:"required"`
	Notify    bool   `json:"notify"`
}

// AddUserCourse godoc
// @Summary      Subscribe to a course key
// @Description  Course keys feed both the timetable query and cancellation notifications
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body  AddUserCourseRequest  true  "Course subscription"
// @Success      200   {object} map[string]string
// @Failure      400   {object} map[string]string
// @Failure      500   {object} map[string]string
// @Security     BearerAuth
// @Router       /user/courses [post]
func AddUserCourse(c *gin.Context) {
	username := c.GetString(auth.CtxUsername)

	var req AddUserCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := db.AddUserCourse(c.Request.Context(), username, req.CourseKey, req.Notify); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add course"})
		return
	}
	c.JSON(200, gin.H{"message": "Course added"})
}

// DeleteUserCourse godoc
// @Summary      Remove a course subscription
// @Tags         user
// @Produce      json
// @Param        id   path  int  true  "Subscription ID"
// @Success      200  {object} map[string]string
// @Failure      500  {object} map[string]string
// @Security     BearerAuth
// @Router       /user/courses/{id} [delete]
func DeleteUserCourse(c *gin.Context) {
	username := c.GetString(auth.CtxUsername)
	id := c.Param("id")

	if err := db.DeleteUserCourse(c.Request.Context(), username, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete course"})
		return
	}
	c.JSON(200, gin.H{"message": "Course deleted"})
}

// UserProfileResponse is a safe version of User for API responses
type UserProfileResponse struct {
	ID              uint                `json:"id"`
	Username        string              `json:"username"`
	PrimaryCourse   int                 `json:"primary_course"`
	SecondaryCourse int                 `json:"secondary_course"`
	Courses         []models.UserCourse `json:"courses"`
}

// GetMe godoc
// @Summary      Get current user profile
// @Tags         user
// @Produce      json
// @Success      200 {object} UserProfileResponse
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /user/me [get]
func GetMe(c *gin.Context) {
	username := c.GetString(auth.CtxUsername)

	user, err := db.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	resp := UserProfileResponse{
		ID:              user.ID,
		Username:        user.Username,
		PrimaryCourse:   user.PrimaryCourseNr,
		SecondaryCourse: user.SecondaryCourseNr,
		Courses:         user.Courses,
	}
	c.JSON(http.StatusOK, resp)
}
