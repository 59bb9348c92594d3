// internal/server/api.go
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-ai/internal/config"
)

const maxImageBytes = 10 << 20

// handleAnalyzeUpload analyzes a multipart "image" upload with an optional
// "hint" field.
func (s *MealServer) handleAnalyzeUpload(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: image file is required", errInvalidParams))
		return
	}
	if fh.Size > maxImageBytes {
		s.writeError(c, errImageTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.writeError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		s.writeError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	if len(image) == 0 {
		s.writeError(c, fmt.Errorf("%w: image file is empty", errInvalidParams))
		return
	}
	if len(image) > maxImageBytes {
		s.writeError(c, errImageTooLarge)
		return
	}

	resp, err := s.analyzeImage(c.Request.Context(), image, c.PostForm("hint"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *MealServer) handleListMeals(c *gin.Context) {
	params := GetMealsParams{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(c, fmt.Errorf("%w: limit: %v", errInvalidParams, err))
			return
		}
		params.Limit = n
	}

	meals, err := s.listMeals(c.Request.Context(), params)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (s *MealServer) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Snapshot().Redacted())
}

// handlePutSettings merges the JSON body over the current settings. Keys
// echoed back in their masked form keep the stored value.
func (s *MealServer) handlePutSettings(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.writeError(c, fmt.Errorf("failed to read body: %w", err))
		return
	}
	var probe config.Settings
	if err := json.Unmarshal(body, &probe); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", errInvalidParams, err))
		return
	}

	updated, err := s.settings.Update(c.Request.Context(), func(cur *config.Settings) {
		prev := *cur
		_ = json.Unmarshal(body, cur)
		keepMasked(&cur.OpenAIKey, prev.OpenAIKey)
		keepMasked(&cur.ClaudeKey, prev.ClaudeKey)
		keepMasked(&cur.GeminiKey, prev.GeminiKey)
		keepMasked(&cur.USDAKey, prev.USDAKey)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.Redacted())
}

func keepMasked(key *string, prev string) {
	if config.IsMasked(*key) {
		*key = prev
	}
}
