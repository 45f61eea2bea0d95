// Package stats aggregates the application index into the dashboard and
// statistics views served to the admin panel.
package stats

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
)

// Turkish weekday names, Sunday first to match time.Weekday numbering.
var weekdayNames = [7]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"}

const defaultPeriod = "30d"

// Engine computes aggregations over index entries. All calendar-day
// bucketing happens in the configured reporting timezone.
type Engine struct {
	uploadsDir string
	loc        *time.Location
	logger     logger.Logger

	now func() time.Time
}

// New builds an Engine. An unknown timezone falls back to UTC.
func New(uploadsDir, timezone string, log logger.Logger) *Engine {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).Warn("unknown reporting timezone, falling back to UTC", map[string]interface{}{
			"timezone": timezone,
		})
		loc = time.UTC
	}
	return &Engine{
		uploadsDir: uploadsDir,
		loc:        loc,
		logger:     log,
		now:        time.Now,
	}
}

type Overview struct {
	TotalApplications    int `json:"totalApplications"`
	PendingApplications  int `json:"pendingApplications"`
	ApprovedApplications int `json:"approvedApplications"`
	RejectedApplications int `json:"rejectedApplications"`
	RecentApplications   int `json:"recentApplications"`
}

type StatusDistribution struct {
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Contacted int `json:"contacted"`
}

type DailyStat struct {
	Date     string `json:"date"`
	Count    int    `json:"count"`
	Pending  int    `json:"pending"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

type FileStatistics struct {
	TotalFiles         int    `json:"totalFiles"`
	TotalSize          int64  `json:"totalSize"`
	TotalSizeFormatted string `json:"totalSizeFormatted"`
}

type RecentApplication struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	Status    string `json:"status"`
}

// Dashboard is the admin landing page payload.
type Dashboard struct {
	Overview           Overview            `json:"overview"`
	StatusDistribution StatusDistribution  `json:"statusDistribution"`
	DailyStatistics    []DailyStat         `json:"dailyStatistics"`
	FileStatistics     FileStatistics      `json:"fileStatistics"`
	RecentApplications []RecentApplication `json:"recentApplications"`
}

// DashboardSummary builds the overview counters, the 30-day daily series,
// upload storage totals and the ten most recent entries.
func (e *Engine) DashboardSummary(entries []models.IndexEntry) *Dashboard {
	now := e.now().In(e.loc)
	weekAgo := now.AddDate(0, 0, -7)

	d := &Dashboard{}
	d.Overview.TotalApplications = len(entries)

	var recent []models.IndexEntry
	for _, entry := range entries {
		switch entry.Status {
		case models.StatusPending:
			d.Overview.PendingApplications++
			d.StatusDistribution.Pending++
		case models.StatusApproved:
			d.Overview.ApprovedApplications++
			d.StatusDistribution.Approved++
		case models.StatusRejected:
			d.Overview.RejectedApplications++
			d.StatusDistribution.Rejected++
		case models.StatusContacted:
			d.StatusDistribution.Contacted++
		}

		if t, ok := e.parse(entry.CreatedAt); ok && t.After(weekAgo) {
			recent = append(recent, entry)
		}
	}
	d.Overview.RecentApplications = len(recent)

	// last 30 calendar days, oldest first
	byDay := make(map[string][]models.IndexEntry)
	for _, entry := range entries {
		if t, ok := e.parse(entry.CreatedAt); ok {
			byDay[t.Format(models.DateLayout)] = append(byDay[t.Format(models.DateLayout)], entry)
		}
	}
	d.DailyStatistics = make([]DailyStat, 0, 30)
	for i := 29; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(models.DateLayout)
		stat := DailyStat{Date: date}
		for _, entry := range byDay[date] {
			stat.Count++
			switch entry.Status {
			case models.StatusPending:
				stat.Pending++
			case models.StatusApproved:
				stat.Approved++
			case models.StatusRejected:
				stat.Rejected++
			}
		}
		d.DailyStatistics = append(d.DailyStatistics, stat)
	}

	d.FileStatistics = e.uploadsStatistics()

	// entries arrive newest first, the first ten recents are the freshest
	limit := len(recent)
	if limit > 10 {
		limit = 10
	}
	d.RecentApplications = make([]RecentApplication, 0, limit)
	for _, entry := range recent[:limit] {
		d.RecentApplications = append(d.RecentApplications, RecentApplication{
			ID:        entry.ID,
			FullName:  entry.FullName,
			Email:     entry.Email,
			CreatedAt: entry.CreatedAt,
			Status:    entry.Status,
		})
	}

	return d
}

type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type WeekdayBucket struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type TimeDistribution struct {
	Hourly  []HourBucket    `json:"hourly"`
	Weekday []WeekdayBucket `json:"weekday"`
}

// Statistics is the period-scoped analytics payload.
type Statistics struct {
	Period            string             `json:"period"`
	TotalApplications int                `json:"totalApplications"`
	GrowthRate        float64            `json:"growthRate"`
	StatusBreakdown   StatusDistribution `json:"statusBreakdown"`
	TimeDistribution  TimeDistribution   `json:"timeDistribution"`
}

// DetailedStatistics aggregates the given period. Unknown periods fall back
// to 30d.
func (e *Engine) DetailedStatistics(entries []models.IndexEntry, period string) *Statistics {
	days := periodDays(period)
	if days == 0 {
		period = defaultPeriod
		days = periodDays(defaultPeriod)
	}

	now := e.now().In(e.loc)
	periodStart := now.AddDate(0, 0, -days)
	previousStart := now.AddDate(0, 0, -2*days)

	st := &Statistics{Period: period}

	hourly := [24]int{}
	weekday := [7]int{}
	currentCount := 0
	previousCount := 0

	for _, entry := range entries {
		t, ok := e.parse(entry.CreatedAt)
		if !ok {
			continue
		}

		if t.After(previousStart) && !t.After(periodStart) {
			previousCount++
		}
		if !t.After(periodStart) {
			continue
		}

		currentCount++
		switch entry.Status {
		case models.StatusPending:
			st.StatusBreakdown.Pending++
		case models.StatusApproved:
			st.StatusBreakdown.Approved++
		case models.StatusRejected:
			st.StatusBreakdown.Rejected++
		case models.StatusContacted:
			st.StatusBreakdown.Contacted++
		}
		hourly[t.Hour()]++
		weekday[int(t.Weekday())]++
	}

	st.TotalApplications = currentCount
	st.GrowthRate = growthRate(currentCount, previousCount)

	st.TimeDistribution.Hourly = make([]HourBucket, 24)
	for h := 0; h < 24; h++ {
		st.TimeDistribution.Hourly[h] = HourBucket{Hour: h, Count: hourly[h]}
	}
	st.TimeDistribution.Weekday = make([]WeekdayBucket, 7)
	for d := 0; d < 7; d++ {
		st.TimeDistribution.Weekday[d] = WeekdayBucket{Day: weekdayNames[d], Count: weekday[d]}
	}

	return st
}

// growthRate is the percentage change against the preceding equal-length
// period. An empty previous period reads as full growth when anything
// arrived at all.
func growthRate(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	rate := float64(current-previous) / float64(previous) * 100
	return math.Round(rate*100) / 100
}

func periodDays(period string) int {
	switch period {
	case "7d":
		return 7
	case "30d":
		return 30
	case "90d":
		return 90
	case "1y":
		return 365
	default:
		return 0
	}
}

func (e *Engine) parse(value string) (time.Time, bool) {
	t, err := time.ParseInLocation(models.TimestampLayout, value, e.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (e *Engine) uploadsStatistics() FileStatistics {
	fs := FileStatistics{TotalSizeFormatted: FormatFileSize(0)}

	files, err := os.ReadDir(e.uploadsDir)
	if err != nil {
		return fs
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(e.uploadsDir, f.Name()))
		if err != nil {
			continue
		}
		fs.TotalFiles++
		fs.TotalSize += info.Size()
	}
	fs.TotalSizeFormatted = FormatFileSize(fs.TotalSize)
	return fs
}

// FormatFileSize renders a byte count the way the admin panel displays it.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}

	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}

	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizes[i]
}
