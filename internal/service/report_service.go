package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/storage"
)

const (
	reportTrendDays = 14
	reportBoardLen  = 5
	reportSamples   = 3
)

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type reportSigner interface {
	Sign(claims storage.DownloadClaims) (string, time.Time, error)
	Verify(token string) (storage.DownloadClaims, error)
}

// ReportServiceConfig governs download links and cleanup of stored reports.
type ReportServiceConfig struct {
	// DownloadPath is the route the signed token is appended to.
	DownloadPath    string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportService builds Markdown learning reports for a student, a module or
// the whole class and hands out signed download links.
type ReportService struct {
	analytics *AnalyticsService
	content   *content.Repository
	knowledge *KnowledgeService
	mediator  AIMediator
	storage   reportStorage
	signer    reportSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// ReportDownload is a resolved stored report.
type ReportDownload struct {
	Filename  string
	Data      []byte
	ExpiresAt time.Time
}

// NewReportService constructs the report service.
func NewReportService(analytics *AnalyticsService, repo *content.Repository, knowledge *KnowledgeService, mediator AIMediator, store reportStorage, signer reportSigner, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/reports/download"
	}
	return &ReportService{
		analytics: analytics,
		content:   repo,
		knowledge: knowledge,
		mediator:  mediator,
		storage:   store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// reportData is the evidence a report is written from.
type reportData struct {
	Scope     models.ReportScope            `json:"scope"`
	Key       string                        `json:"key,omitempty"`
	Summary   *models.ActivitySummary       `json:"summary,omitempty"`
	Modules   map[string]models.ModuleStats `json:"modules,omitempty"`
	Module    *models.ModuleStats           `json:"module,omitempty"`
	Trend     []models.DailyCount           `json:"trend,omitempty"`
	Board     []models.LeaderboardEntry     `json:"leaderboard,omitempty"`
	Student   *models.StudentModuleAnalysis `json:"student,omitempty"`
	Textbooks []string                      `json:"textbooks,omitempty"`
	Content   *models.ContentStats          `json:"content,omitempty"`
	Samples   *models.KnowledgeBundle       `json:"samples,omitempty"`
	degraded  bool
	mu        sync.Mutex
}

func (d *reportData) markDegraded(degraded bool) {
	if !degraded {
		return
	}
	d.mu.Lock()
	d.degraded = true
	d.mu.Unlock()
}

// Generate gathers the scope's analytics in parallel, asks the model for the
// report under the default profile and stores the Markdown. When the model is
// unreachable a plain statistical report is stored instead.
func (s *ReportService) Generate(ctx context.Context, req dto.ReportRequest) (*models.Report, error) {
	req.Key = strings.TrimSpace(req.Key)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scope := models.ReportScope(req.Scope)
	data, err := s.gather(ctx, scope, req.Key)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:          uuid.NewString(),
		Scope:       scope,
		Key:         req.Key,
		Degraded:    data.degraded,
		GeneratedAt: s.now().UTC(),
	}
	prompt, err := reportPrompt(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to build report prompt")
	}
	markdown, err := s.mediator.SynthesiseReport(ctx, prompt)
	switch {
	case err == nil:
		report.Markdown = markdown
	case llmUnavailable(err):
		s.logger.Warn("report degraded to statistics only", zap.String("scope", req.Scope), zap.Error(err))
		report.Markdown = cannedReport(data)
		report.Degraded = true
	default:
		return nil, llmError(err)
	}

	if err := s.store(report); err != nil {
		s.logger.Warn("report not stored; returning inline only", zap.String("report_id", report.ID), zap.Error(err))
	}
	return report, nil
}

func (s *ReportService) gather(ctx context.Context, scope models.ReportScope, key string) (*reportData, error) {
	data := &reportData{Scope: scope, Key: key}
	g, gctx := errgroup.WithContext(ctx)

	switch scope {
	case models.ScopeStudent:
		g.Go(func() error {
			analysis, degraded := s.analytics.StudentInModule(gctx, key, "")
			data.Student = &analysis
			data.markDegraded(degraded)
			return nil
		})
	case models.ScopeModule:
		key = models.CanonicalModule(key)
		data.Key = key
		g.Go(func() error {
			stats, degraded := s.analytics.ModuleStatistics(gctx, key)
			data.Module = &stats
			data.markDegraded(degraded)
			return nil
		})
		g.Go(func() error {
			board, degraded := s.analytics.Leaderboard(gctx, key, reportBoardLen)
			data.Board = board
			data.markDegraded(degraded)
			return nil
		})
	case models.ScopeOverall:
		g.Go(func() error {
			summary, degraded := s.analytics.ActivitySummary(gctx)
			data.Summary = &summary
			data.markDegraded(degraded)
			return nil
		})
		g.Go(func() error {
			modules, degraded := s.analytics.AllModulesStatistics(gctx)
			data.Modules = modules
			data.markDegraded(degraded)
			return nil
		})
		g.Go(func() error {
			trend, degraded := s.analytics.DailyTrend(gctx, reportTrendDays)
			data.Trend = trend
			data.markDegraded(degraded)
			return nil
		})
		g.Go(func() error {
			board, degraded := s.analytics.Leaderboard(gctx, "", reportBoardLen)
			data.Board = board
			data.markDegraded(degraded)
			return nil
		})
	default:
		return nil, appErrors.Field("scope", "must be one of student, module, overall")
	}

	if s.content != nil {
		for _, b := range s.content.ListTextbooks() {
			data.Textbooks = append(data.Textbooks, b.Name)
		}
		stats := s.content.Stats()
		data.Content = &stats
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.knowledge != nil {
		samples := s.knowledge.Samples(sampleSeeds(data), reportSamples)
		data.Samples = &samples
	}
	return data, nil
}

// sampleSeeds picks what the content samples are searched for: the content a
// student recently touched, otherwise the scope's module tags, busiest first.
func sampleSeeds(data *reportData) []string {
	var seeds []string
	switch data.Scope {
	case models.ScopeStudent:
		if data.Student != nil {
			for _, a := range data.Student.Activities {
				if a.ContentName != "" {
					seeds = append(seeds, a.ContentName)
				}
			}
		}
	case models.ScopeModule:
		seeds = append(seeds, data.Key)
	case models.ScopeOverall:
		names := make([]string, 0, len(data.Modules))
		for name := range data.Modules {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			vi, vj := data.Modules[names[i]].TotalVisits, data.Modules[names[j]].TotalVisits
			if vi != vj {
				return vi > vj
			}
			return names[i] < names[j]
		})
		seeds = append(seeds, names...)
	}
	return seeds
}

func reportPrompt(data *reportData) (string, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	switch data.Scope {
	case models.ScopeStudent:
		fmt.Fprintf(&b, "请为学生 %s 撰写个人学情报告。\n", data.Key)
	case models.ScopeModule:
		fmt.Fprintf(&b, "请为模块「%s」撰写学情报告。\n", data.Key)
	default:
		b.WriteString("请撰写全班整体学情报告。\n")
	}
	if data.degraded {
		b.WriteString("注意：部分统计因数据库离线而缺失。\n")
	}
	b.WriteString("统计数据（JSON）：\n```json\n")
	b.Write(payload)
	b.WriteString("\n```\n")
	return b.String(), nil
}

// cannedReport renders the gathered statistics without the model.
func cannedReport(data *reportData) string {
	var b strings.Builder
	b.WriteString("# 学情报告\n\n> AI 服务暂时不可用，以下为统计摘要。\n\n")
	if data.Summary != nil {
		fmt.Fprintf(&b, "## 概况\n\n- 学生总数：%d\n- 活动总数：%d\n- 今日活动：%d\n- 近 7 日活跃学生：%d\n\n",
			data.Summary.TotalStudents, data.Summary.TotalActivities, data.Summary.TodayActivities, data.Summary.ActiveStudents7d)
	}
	if data.Module != nil {
		fmt.Fprintf(&b, "## 模块「%s」\n\n- 访问次数：%d\n- 学生人数：%d\n- 人均访问：%.1f\n- 近 7 日访问：%d\n\n",
			data.Key, data.Module.TotalVisits, data.Module.UniqueStudents, data.Module.AvgVisitsPerStudent, data.Module.Recent7dVisits)
	}
	if len(data.Modules) > 0 {
		b.WriteString("## 各模块访问\n\n| 模块 | 访问 | 学生 |\n|---|---|---|\n")
		names := make([]string, 0, len(data.Modules))
		for name := range data.Modules {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			st := data.Modules[name]
			fmt.Fprintf(&b, "| %s | %d | %d |\n", name, st.TotalVisits, st.UniqueStudents)
		}
		b.WriteString("\n")
	}
	if data.Student != nil {
		c := data.Student.Counters
		fmt.Fprintf(&b, "## 学生 %s\n\n- 活动总数：%d\n- 活跃天数：%d\n", data.Key, c.Total, c.ActiveDays)
		types := make([]string, 0, len(c.ByType))
		for t := range c.ByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(&b, "- %s：%d\n", t, c.ByType[t])
		}
		b.WriteString("\n")
	}
	if len(data.Board) > 0 {
		b.WriteString("## 活跃榜\n\n")
		for i, e := range data.Board {
			fmt.Fprintf(&b, "%d. %s（%s）：%d 次，%d 天\n", i+1, e.Name, e.StudentID, e.ActivityCount, e.ActiveDays)
		}
		b.WriteString("\n")
	}
	if data.Samples != nil && (len(data.Samples.Lessons) > 0 || len(data.Samples.Events) > 0) {
		b.WriteString("## 相关内容\n\n")
		for _, l := range data.Samples.Lessons {
			fmt.Fprintf(&b, "- 课文：%s\n", l.Title)
		}
		for _, e := range data.Samples.Events {
			fmt.Fprintf(&b, "- 事件：%s\n", e.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *ReportService) store(report *models.Report) error {
	if s.storage == nil || s.signer == nil {
		return fmt.Errorf("report storage not configured")
	}
	filename := path.Join(report.GeneratedAt.Format("20060102"), report.ID+".md")
	relPath, err := s.storage.Save(filename, []byte(report.Markdown))
	if err != nil {
		return err
	}
	token, expiresAt, err := s.signer.Sign(storage.DownloadClaims{ReportID: report.ID, Scope: string(report.Scope), Path: relPath})
	if err != nil {
		return err
	}
	report.DownloadURL = s.cfg.DownloadPath + "?token=" + url.QueryEscape(token)
	report.ExpiresAt = &expiresAt
	return nil
}

// Download resolves a signed token to the stored Markdown.
func (s *ReportService) Download(_ context.Context, token string) (*ReportDownload, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report storage not configured")
	}
	claims, err := s.signer.Verify(token)
	if errors.Is(err, storage.ErrTokenExpired) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	}
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	data, err := s.storage.Read(claims.Path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	name := "report-" + claims.ReportID + ".md"
	if claims.Scope != "" {
		name = "report-" + claims.Scope + "-" + claims.ReportID + ".md"
	}
	return &ReportDownload{Filename: name, Data: data, ExpiresAt: claims.Expiry()}, nil
}

// StartCleanup purges stored reports older than the result TTL until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 || s.storage == nil {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Warn("report cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("report cleanup", zap.Int("removed", len(removed)))
				}
			}
		}
	}()
}
