package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

// StatsController serves the admin dashboard aggregations.
type StatsController struct {
	stats store.StatsStore
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(stats store.StatsStore) *StatsController {
	return &StatsController{stats: stats}
}

// Users returns role totals and per-user post counts by moderation status.
func (s *StatsController) Users(ctx *gin.Context) {
	stats, err := s.stats.UserStats(ctx.Request.Context())
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch user stats")
		return
	}
	utils.Success(ctx, stats)
}

// Posts returns approved-post totals broken down by the category and year tag
// vocabularies.
func (s *StatsController) Posts(ctx *gin.Context) {
	stats, err := s.stats.PostStats(ctx.Request.Context())
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch post stats")
		return
	}
	utils.Success(ctx, stats)
}

// MonthlyPosts returns approved-post counts grouped by creation month,
// optionally narrowed to a specific month and year via query parameters.
func (s *StatsController) MonthlyPosts(ctx *gin.Context) {
	month, _ := strconv.Atoi(ctx.Query("month"))
	year, _ := strconv.Atoi(ctx.Query("year"))

	rows, total, err := s.stats.MonthlyPostCounts(ctx.Request.Context(), month, year)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch monthly stats")
		return
	}

	utils.Success(ctx, models.MonthlyStats{
		Posts:      decorateMonthly(rows, total),
		TotalPosts: total,
	})
}

// decorateMonthly fills in month names and each month's percentage share of
// the period total. An empty period yields a single "No Data" placeholder row
// so chart clients always have something to render.
func decorateMonthly(rows []models.MonthlyCount, total int64) []models.MonthlyCount {
	if len(rows) == 0 {
		return []models.MonthlyCount{{
			Month:      1,
			Count:      0,
			MonthName:  "No Data",
			Percentage: "0.00",
		}}
	}

	out := make([]models.MonthlyCount, len(rows))
	for i, row := range rows {
		row.MonthName = time.Month(row.Month).String()
		if total > 0 {
			row.Percentage = fmt.Sprintf("%.2f", float64(row.Count)/float64(total)*100)
		} else {
			row.Percentage = "0.00"
		}
		out[i] = row
	}
	return out
}
