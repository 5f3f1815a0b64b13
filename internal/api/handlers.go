package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tyleshq/tyles/internal/cache"
	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/session"
	"github.com/tyleshq/tyles/internal/store"
)

func (s *Server) registerRoutes(r *gin.RouterGroup) {
	r.GET("/me", s.getMe)
	r.PATCH("/me", s.patchMe)

	r.GET("/platforms", s.listPlatforms)

	r.GET("/summary", s.getSummary)
	r.GET("/insights/platforms", s.getPlatformInsights)
	r.GET("/insights/categories", s.getCategoryInsights)
	r.GET("/activity", s.getActivity)

	r.GET("/earnings", s.listEarnings)
	r.POST("/earnings", s.createEarning)
	r.PATCH("/earnings/:id", s.updateEarning)
	r.DELETE("/earnings/:id", s.deleteEarning)

	r.GET("/expenses", s.listExpenses)
	r.POST("/expenses", s.createExpense)
	r.PATCH("/expenses/:id", s.updateExpense)
	r.DELETE("/expenses/:id", s.deleteExpense)

	r.GET("/goals", s.listGoals)
	r.POST("/goals", s.createGoal)
	r.PATCH("/goals/:id", s.updateGoal)
	r.DELETE("/goals/:id", s.deleteGoal)

	r.GET("/accounts", s.listAccounts)
	r.GET("/notifications", s.listNotifications)
	r.POST("/notifications/:id/read", s.readNotification)
	r.GET("/withholdings", s.listWithholdings)

	r.POST("/refresh", s.refresh)
	r.POST("/logout", s.logout)
}

// sessionFor returns the caller's populated session, creating the user
// row on a first-ever request (the identity-sync step of the account
// lifecycle).
func (s *Server) sessionFor(c *gin.Context) (*session.Session, bool) {
	id := currentIdentity(c)
	if id == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no verified identity"})
		return nil, false
	}

	ctx := c.Request.Context()
	sess := s.manager.Get(ctx, id)
	if sess.Store().User() != nil {
		return sess, true
	}

	_, err := s.gateway.CreateUser(ctx, model.User{
		AuthUID:  id.UID,
		Email:    id.Email,
		FullName: id.DisplayName,
	})
	if err != nil && !errors.Is(err, common.ErrDuplicateEntry) {
		s.logger.Error("user bootstrap failed", "uid", id.UID, "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not provision user"})
		return nil, false
	}

	sess.HandleEvent(ctx, identityEvent(id))
	if sess.Store().User() == nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not load user"})
		return nil, false
	}
	return sess, true
}

// sessionUser snapshots the session's user. A concurrent logout can
// clear the store between sessionFor and a later read, so handlers
// that need the user go through here instead of re-dereferencing.
func sessionUser(c *gin.Context, sess *session.Session) (*model.User, bool) {
	user := sess.Store().User()
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session ended"})
		return nil, false
	}
	return user, true
}

// writeStoreError maps store/gateway failures onto HTTP statuses. Write
// failures surface as 502 with a machine-readable kind; absent rows as
// 404.
func writeStoreError(c *gin.Context, err error) {
	var werr *store.WriteError
	if errors.As(err, &werr) {
		if errors.Is(werr.Err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found", "kind": "not_found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    werr.Error(),
			"kind":     "remote_write_error",
			"resource": string(werr.Resource),
		})
		return
	}
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "kind": "not_found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// resourceErrors collects per-resource fetch errors for partial-state
// rendering.
func resourceErrors(st *store.Store) map[string]string {
	out := make(map[string]string)
	for _, r := range []store.Resource{
		store.ResourceUser, store.ResourcePlatforms, store.ResourceEarnings,
		store.ResourceExpenses, store.ResourceGoals, store.ResourceAccounts,
	} {
		if err := st.Status(r).Err; err != nil {
			out[string(r)] = err.Error()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *Server) getMe(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}
	user, ok := sessionUser(c, sess)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toAPIUser(user))
}

func (s *Server) patchMe(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req userPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := model.UserPatch{
		Email:               req.Email,
		FullName:            req.FullName,
		Phone:               req.Phone,
		OnboardingCompleted: req.OnboardingCompleted,
		EstimatedTaxRate:    req.EstimatedTaxRate,
	}
	if req.TaxFilingStatus != nil {
		status := model.TaxFilingStatus(*req.TaxFilingStatus)
		patch.TaxFilingStatus = &status
	}

	updated, err := sess.Store().UpdateUser(c.Request.Context(), patch)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAPIUser(updated))
}

// listPlatforms serves the catalog cache-aside: a cache failure only
// costs a gateway round trip.
func (s *Server) listPlatforms(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.cache.Get(ctx, platformsCacheKey); err == nil {
		var platforms []apiPlatform
		if json.Unmarshal([]byte(cached), &platforms) == nil {
			c.JSON(http.StatusOK, platforms)
			return
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("platform cache read failed", "error", err)
	}

	platforms, err := s.gateway.ListPlatforms(ctx)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	out := toAPIPlatforms(platforms)
	if payload, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, platformsCacheKey, string(payload), platformsCacheTTL); err != nil {
			s.logger.Warn("platform cache write failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSummary(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	summary := sess.Summary()
	c.JSON(http.StatusOK, apiSummary{
		TotalEarnings:          summary.TotalEarnings,
		TotalExpenses:          summary.TotalExpenses,
		AvailableBalance:       summary.AvailableBalance,
		EstimatedTaxes:         summary.EstimatedTaxes,
		DailyGoal:              toAPIGoalProgress(summary.DailyGoal),
		WeeklyGoal:             toAPIGoalProgress(summary.WeeklyGoal),
		MonthlyGoal:            toAPIGoalProgress(summary.MonthlyGoal),
		HasCompletedOnboarding: summary.HasCompletedOnboarding,
		Errors:                 resourceErrors(sess.Store()),
	})
}

func (s *Server) getPlatformInsights(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	groups := sess.EarningsByPlatform()
	out := make([]apiPlatformSummary, len(groups))
	for i, g := range groups {
		out[i] = apiPlatformSummary{
			PlatformID:    g.PlatformID,
			TotalEarnings: g.TotalEarnings,
			TotalHours:    g.TotalHours,
			TotalTrips:    g.TotalTrips,
		}
		if g.Platform != nil {
			p := toAPIPlatform(*g.Platform)
			out[i].Platform = &p
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCategoryInsights(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	groups := sess.ExpensesByCategory()
	out := make([]apiCategorySummary, len(groups))
	for i, g := range groups {
		out[i] = apiCategorySummary{Category: g.Category, Total: g.Total, Count: g.Count}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getActivity(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	feed := sess.RecentActivity(limit)
	out := make([]apiActivity, len(feed))
	for i, a := range feed {
		out[i] = toAPIActivity(a)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listEarnings(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	r := service.DateRange{Start: c.Query("from"), End: c.Query("to")}
	if r.Start != "" || r.End != "" {
		user, ok := sessionUser(c, sess)
		if !ok {
			return
		}
		_ = sess.Store().FetchEarnings(c.Request.Context(), user.ID, r)
	}

	earnings := sess.Store().Earnings()
	out := make([]apiEarning, len(earnings))
	for i, e := range earnings {
		out[i] = toAPIEarning(e)
	}
	c.JSON(http.StatusOK, gin.H{"earnings": out, "errors": resourceErrors(sess.Store())})
}

func (s *Server) createEarning(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req earningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, ok := sessionUser(c, sess)
	if !ok {
		return
	}

	created, err := sess.Store().AddEarning(c.Request.Context(), model.Earning{
		UserID:        user.ID,
		PlatformID:    req.PlatformID,
		Amount:        req.Amount,
		GrossAmount:   req.GrossAmount,
		Fees:          req.Fees,
		Tips:          req.Tips,
		Date:          req.Date,
		TransactionID: req.TransactionID,
		Description:   req.Description,
		TripCount:     req.TripCount,
		HoursWorked:   req.HoursWorked,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAPIEarning(*created))
}

func (s *Server) updateEarning(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req earningPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := sess.Store().UpdateEarning(c.Request.Context(), c.Param("id"), model.EarningPatch{
		PlatformID:    req.PlatformID,
		Amount:        req.Amount,
		GrossAmount:   req.GrossAmount,
		Fees:          req.Fees,
		Tips:          req.Tips,
		Date:          req.Date,
		TransactionID: req.TransactionID,
		Description:   req.Description,
		TripCount:     req.TripCount,
		HoursWorked:   req.HoursWorked,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAPIEarning(*updated))
}

func (s *Server) deleteEarning(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	if err := sess.Store().DeleteEarning(c.Request.Context(), c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listExpenses(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	r := service.DateRange{Start: c.Query("from"), End: c.Query("to")}
	if r.Start != "" || r.End != "" {
		user, ok := sessionUser(c, sess)
		if !ok {
			return
		}
		_ = sess.Store().FetchExpenses(c.Request.Context(), user.ID, r)
	}

	expenses := sess.Store().Expenses()
	out := make([]apiExpense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	c.JSON(http.StatusOK, gin.H{"expenses": out, "errors": resourceErrors(sess.Store())})
}

func (s *Server) createExpense(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, ok := sessionUser(c, sess)
	if !ok {
		return
	}

	created, err := sess.Store().AddExpense(c.Request.Context(), model.Expense{
		UserID:            user.ID,
		Amount:            req.Amount,
		Category:          model.ExpenseCategory(req.Category),
		Subcategory:       req.Subcategory,
		Description:       req.Description,
		ReceiptURL:        req.ReceiptURL,
		IsBusinessExpense: req.IsBusinessExpense,
		Mileage:           req.Mileage,
		Date:              req.Date,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAPIExpense(*created))
}

func (s *Server) updateExpense(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req expensePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := model.ExpensePatch{
		Amount:            req.Amount,
		Subcategory:       req.Subcategory,
		Description:       req.Description,
		ReceiptURL:        req.ReceiptURL,
		IsBusinessExpense: req.IsBusinessExpense,
		Mileage:           req.Mileage,
		Date:              req.Date,
	}
	if req.Category != nil {
		cat := model.ExpenseCategory(*req.Category)
		patch.Category = &cat
	}

	updated, err := sess.Store().UpdateExpense(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAPIExpense(*updated))
}

func (s *Server) deleteExpense(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	if err := sess.Store().DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listGoals(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	goals := sess.Store().Goals()
	out := make([]apiGoal, len(goals))
	for i, g := range goals {
		out[i] = toAPIGoal(g)
	}
	c.JSON(http.StatusOK, gin.H{"goals": out, "errors": resourceErrors(sess.Store())})
}

func (s *Server) createGoal(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user, ok := sessionUser(c, sess)
	if !ok {
		return
	}

	created, err := sess.Store().AddGoal(c.Request.Context(), model.Goal{
		UserID:       user.ID,
		GoalType:     model.GoalType(req.GoalType),
		TargetAmount: req.TargetAmount,
		IsActive:     active,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAPIGoal(*created))
}

func (s *Server) updateGoal(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var req goalPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := model.GoalPatch{
		TargetAmount: req.TargetAmount,
		IsActive:     req.IsActive,
	}
	if req.GoalType != nil {
		gt := model.GoalType(*req.GoalType)
		patch.GoalType = &gt
	}

	updated, err := sess.Store().UpdateGoal(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAPIGoal(*updated))
}

func (s *Server) deleteGoal(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	if err := sess.Store().DeleteGoal(c.Request.Context(), c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listAccounts(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	accounts := sess.Store().ConnectedAccounts()
	out := make([]apiAccount, len(accounts))
	for i, a := range accounts {
		out[i] = toAPIAccount(a)
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out, "errors": resourceErrors(sess.Store())})
}

func (s *Server) listNotifications(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	user, ok := sessionUser(c, sess)
	if !ok {
		return
	}

	st := sess.Store()
	_ = st.FetchNotifications(c.Request.Context(), user.ID)

	notifications := st.Notifications()
	out := make([]apiNotification, len(notifications))
	for i, n := range notifications {
		out[i] = apiNotification{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func (s *Server) readNotification(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	if err := sess.Store().MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listWithholdings(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	user, ok := sessionUser(c, sess)
	if !ok {
		return
	}

	withholdings, err := s.gateway.ListTaxWithholdings(c.Request.Context(), user.ID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	out := make([]apiWithholding, len(withholdings))
	for i, w := range withholdings {
		out[i] = apiWithholding{
			ID:          w.ID,
			Amount:      w.Amount,
			Percentage:  w.Percentage,
			PeriodStart: w.PeriodStart,
			PeriodEnd:   w.PeriodEnd,
			Status:      string(w.Status),
		}
	}
	c.JSON(http.StatusOK, gin.H{"withholdings": out})
}

func (s *Server) refresh(c *gin.Context) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	sess.Refresh(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (s *Server) logout(c *gin.Context) {
	id := currentIdentity(c)
	if id == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no verified identity"})
		return
	}

	s.manager.Drop(id.UID)
	c.Status(http.StatusNoContent)
}
