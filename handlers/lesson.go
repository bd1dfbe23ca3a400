package handlers

import (
	"errors"
	"net/http"
	"time"

	"driveon/models"
	"driveon/store"
	"driveon/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LessonHandler exposes the lesson service contract over HTTP.
type LessonHandler struct {
	Store  *store.LessonStore
	Logger *zap.Logger
}

func NewLessonHandler(lessonStore *store.LessonStore, logger *zap.Logger) *LessonHandler {
	return &LessonHandler{
		Store:  lessonStore,
		Logger: logger,
	}
}

// ListLessons handles GET /lessons?type=&status=.
func (h *LessonHandler) ListLessons(c *gin.Context) {
	lessonType := c.Query("type")
	status := c.Query("status")
	c.JSON(http.StatusOK, h.Store.List(lessonType, status))
}

// InstructorLessons handles GET /lessons/instructors.
func (h *LessonHandler) InstructorLessons(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ForInstructor(c.GetString("userID")))
}

// StudentLessons handles GET /lessons/student.
func (h *LessonHandler) StudentLessons(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ForStudent(c.GetString("userID")))
}

// BookLesson handles POST /lessons/book. The booking transition is atomic
// in the store; a lost race surfaces as 409.
func (h *LessonHandler) BookLesson(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LessonID == "" {
		utils.JSONError(c, http.StatusBadRequest, "lessonId is required", "")
		return
	}

	student := models.Person{ID: c.GetString("userID")}
	booked, err := h.Store.Book(req.LessonID, student)
	if err != nil {
		h.storeError(c, err)
		return
	}

	h.Logger.Info("lesson booked",
		zap.String("lessonId", booked.ID), zap.String("studentId", student.ID))
	c.JSON(http.StatusOK, booked)
}

// CancelLesson handles POST /lessons/cancel and returns the refund
// decision computed from the configured refund window.
func (h *LessonHandler) CancelLesson(c *gin.Context) {
	var req models.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LessonID == "" {
		utils.JSONError(c, http.StatusBadRequest, "lessonId is required", "")
		return
	}

	result, err := h.Store.Cancel(req.LessonID)
	if err != nil {
		h.storeError(c, err)
		return
	}

	h.Logger.Info("lesson canceled",
		zap.String("lessonId", req.LessonID), zap.Bool("refunded", result.Refunded))
	c.JSON(http.StatusOK, result)
}

// GetOffer handles GET /lessons/offer. A JSON null body means the
// instructor has no free slot to offer; that is a valid 200, not an error.
func (h *LessonHandler) GetOffer(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Offer(c.GetString("userID")))
}

// ChangeLesson handles POST /lessons/change: atomic cancel-and-rebook at
// the accepted offer time.
func (h *LessonHandler) ChangeLesson(c *gin.Context) {
	var req models.ChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OldLessonID == "" || req.NewDate == "" {
		utils.JSONError(c, http.StatusBadRequest, "oldLessonId and newDate are required", "")
		return
	}

	newDate, err := time.Parse(time.RFC3339, req.NewDate)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "newDate must be RFC3339", err.Error())
		return
	}

	result, err := h.Store.Change(req.OldLessonID, newDate)
	if err != nil {
		h.storeError(c, err)
		return
	}

	h.Logger.Info("lesson rescheduled",
		zap.String("oldLessonId", result.OldLesson.ID), zap.String("newLessonId", result.NewLesson.ID))
	c.JSON(http.StatusOK, result)
}

func (h *LessonHandler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrLessonNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, store.ErrSlotTaken),
		errors.Is(err, store.ErrAlreadyCanceled),
		errors.Is(err, store.ErrNotBooked),
		errors.Is(err, store.ErrNoReplacementSlot):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	default:
		h.Logger.Error("lesson store failure", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
