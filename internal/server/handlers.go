package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	svcErr "drinkup/internal/errors"
	"drinkup/internal/service/chat"
	"drinkup/internal/service/feed"
	"drinkup/internal/service/place"
	"drinkup/internal/service/profile"
	"drinkup/internal/service/review"
	"drinkup/internal/utils/pagination"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "now": time.Now().UTC().Format(time.RFC3339)})
}

// --- auth ---

func (s *Server) handleRequestCode(c *gin.Context) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	requestID, code, err := s.authSvc.RequestCode(c.Request.Context(), strings.TrimSpace(body.Phone))
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"request_id": requestID}
	if s.appCtx.Config.App.ENV == "development" {
		resp["mock_code"] = code
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVerifyCode(c *gin.Context) {
	var body struct {
		RequestID string `json:"request_id"`
		Code      string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	user, tokens, err := s.authSvc.VerifyCode(c.Request.Context(), body.RequestID, body.Code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user_id":       user.ID,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	accessToken, err := s.authSvc.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// --- profile ---

func (s *Server) handleMe(c *gin.Context) {
	view, err := s.profileSvc.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleUpdateMe(c *gin.Context) {
	var req profile.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	updated, err := s.profileSvc.UpdateMe(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": updated})
}

func (s *Server) handleUpdatePhotos(c *gin.Context) {
	var body struct {
		Photos []string `json:"photos"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	photos, err := s.profileSvc.UpdatePhotos(c.Request.Context(), currentUser(c).ID, body.Photos)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

func (s *Server) handleUpdateLocation(c *gin.Context) {
	var req profile.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	location, err := s.profileSvc.UpdateLocation(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location})
}

func (s *Server) handleGetUser(c *gin.Context) {
	public, err := s.profileSvc.Public(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, public)
}

// --- feed & swipes ---

// parseAgeRange parses "min-max" with an optional max ("25-" or "25"
// leave the upper bound open).
func parseAgeRange(raw string) (int, int) {
	if raw == "" {
		return 0, 0
	}
	parts := strings.SplitN(raw, "-", 2)
	min, _ := strconv.Atoi(parts[0])
	max := 0
	if len(parts) == 2 {
		max, _ = strconv.Atoi(parts[1])
	}
	return min, max
}

func (s *Server) handleFeed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(pagination.DefaultPageSize)))

	ageMin, ageMax := parseAgeRange(c.Query("age"))
	filters := feed.Filters{
		AgeMin:       ageMin,
		AgeMax:       ageMax,
		Drink:        c.Query("drink"),
		EveningStyle: c.Query("evening_style"),
		Topics:       c.QueryArray("topics"),
	}

	cards, nextPage, err := s.feedSvc.GenerateFeed(c.Request.Context(), currentUser(c).ID, filters, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cards, "next_page": nextPage})
}

func (s *Server) handleRecordSwipe(c *gin.Context) {
	var body struct {
		TargetID  string `json:"target_id"`
		Direction string `json:"direction"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	_, match, err := s.swipeSvc.RecordSwipe(c.Request.Context(), currentUser(c).ID, body.TargetID, body.Direction)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded", "match": match})
}

func (s *Server) handleListMatches(c *gin.Context) {
	views, err := s.swipeSvc.ListMatches(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

func (s *Server) handleCloseMatch(c *gin.Context) {
	if err := s.swipeSvc.CloseMatch(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// --- messages ---

func (s *Server) handleListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := s.chatSvc.ListMessages(c.Request.Context(), c.Param("id"), currentUser(c).ID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": messages})
}

func (s *Server) handlePostMessage(c *gin.Context) {
	var req chat.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	message, err := s.chatSvc.PostMessage(c.Request.Context(), c.Param("id"), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// --- reviews & reputation ---

func (s *Server) handleSubmitReview(c *gin.Context) {
	var req review.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	stored, err := s.reviewSvc.SubmitReview(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": stored})
}

func (s *Server) handleListReviews(c *gin.Context) {
	reviews, err := s.reviewSvc.ListRecentReviews(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reviews})
}

func (s *Server) handleGetReputation(c *gin.Context) {
	snapshot, err := s.reviewSvc.GetReputation(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"score":  snapshot.Score,
		"badges": snapshot.Badges,
		"averages": gin.H{
			"warmth":  snapshot.Averages.Warmth,
			"sanity":  snapshot.Averages.Sanity,
			"stamina": snapshot.Averages.Stamina,
		},
	})
}

// --- places ---

func (s *Server) handleNearbyPlaces(c *gin.Context) {
	lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
	lon, _ := strconv.ParseFloat(c.Query("lon"), 64)
	radius, _ := strconv.Atoi(c.DefaultQuery("radius", "5000"))
	views, err := s.placeSvc.Nearby(c.Request.Context(), lat, lon, radius, c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

func (s *Server) handleCreatePlace(c *gin.Context) {
	var req place.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	created, err := s.placeSvc.Create(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"place": created})
}

func (s *Server) handleSetPlaceStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	updated, err := s.placeSvc.SetStatus(c.Request.Context(), c.Param("id"), currentUser(c).ID, s.isAdmin(c), body.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": updated})
}

// --- billing ---

func (s *Server) handleProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.billingSvc.Products()})
}

func (s *Server) handlePurchase(c *gin.Context) {
	var body struct {
		ProductID string `json:"product_id"`
		Provider  string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	payment, expiresAt, err := s.billingSvc.Purchase(c.Request.Context(), currentUser(c).ID, body.ProductID, body.Provider)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment, "pro_expires_at": expiresAt})
}

func (s *Server) handleBillingStatus(c *gin.Context) {
	status, err := s.billingSvc.GetStatus(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// --- moderation ---

func (s *Server) handleSubmitReport(c *gin.Context) {
	var body struct {
		TargetType string `json:"target_type"`
		TargetID   string `json:"target_id"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	report, err := s.moderationSvc.SubmitReport(c.Request.Context(), currentUser(c).ID, body.TargetType, body.TargetID, body.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (s *Server) handleModerationQueue(c *gin.Context) {
	queue, err := s.moderationSvc.BuildQueue(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": queue})
}

func (s *Server) handleModerationResolve(c *gin.Context) {
	var body struct {
		TargetType string `json:"target_type"`
		TargetID   string `json:"target_id"`
		Decision   string `json:"decision"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, svcErr.Validation("invalid json"))
		return
	}
	if err := s.moderationSvc.Resolve(c.Request.Context(), body.TargetType, body.TargetID, body.Decision); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
