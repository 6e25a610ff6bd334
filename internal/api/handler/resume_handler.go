package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/types"
	"resume-analyzer-go/internal/vocab"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// HealthCheck 依赖检查，返回nil表示可用
type HealthCheck func(ctx context.Context) error

// ResumeHandler 简历上传、抽取和候选人管理接口
type ResumeHandler struct {
	service *processor.ResumeService
	vocab   *vocab.Vocabulary
	checks  map[string]HealthCheck
	log     zerolog.Logger
}

// NewResumeHandler 创建处理器，vocab用于技能推荐
func NewResumeHandler(service *processor.ResumeService, v *vocab.Vocabulary) *ResumeHandler {
	if v == nil {
		v = vocab.Default()
	}
	return &ResumeHandler{
		service: service,
		vocab:   v,
		checks:  map[string]HealthCheck{},
		log:     logger.Component("api"),
	}
}

// AddHealthCheck 注册健康检查项
func (h *ResumeHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *ResumeHandler) store() storage.CandidateStore {
	return h.service.Store()
}

// errorStatus 业务错误到HTTP状态码
func errorStatus(err error) int {
	switch {
	case errors.Is(err, processor.ErrDuplicateFile), errors.Is(err, processor.ErrDuplicateContent):
		return consts.StatusConflict
	case errors.Is(err, processor.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, processor.ErrEmptyFile), errors.Is(err, processor.ErrUnsupportedFile):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrParseTextFailed), errors.Is(err, processor.ErrExtractFailed):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrNotConfigured):
		return consts.StatusServiceUnavailable
	case errors.Is(err, storage.ErrCandidateNotFound):
		return consts.StatusNotFound
	}
	return consts.StatusInternalServerError
}

func (h *ResumeHandler) fail(ctx context.Context, c *app.RequestContext, err error) {
	status := errorStatus(err)
	if status >= consts.StatusInternalServerError {
		logger.FromContext(ctx).Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
	}
	c.JSON(status, utils.H{"error": err.Error()})
}

// HandleResumeUpload POST /resume/upload，表单字段 file、source_channel、async
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return
	}

	req := processor.UploadRequest{
		Filename:      fileHeader.Filename,
		Data:          data,
		SourceChannel: c.PostForm("source_channel"),
	}
	async, _ := strconv.ParseBool(c.DefaultPostForm("async", c.DefaultQuery("async", "false")))

	var res *processor.UploadResult
	if async {
		res, err = h.service.SubmitUpload(ctx, req)
	} else {
		res, err = h.service.ProcessUpload(ctx, req)
	}
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	if res.Queued {
		c.JSON(consts.StatusAccepted, res)
		return
	}
	c.JSON(consts.StatusOK, res)
}

// ExtractRequest 文本抽取请求，Persist为false时只返回记录
type ExtractRequest struct {
	Text          string `json:"text"`
	SourceChannel string `json:"source_channel,omitempty"`
	Persist       *bool  `json:"persist,omitempty"`
}

// ExtractResponse 只抽取时的响应
type ExtractResponse struct {
	Record         *types.ResumeRecord `json:"record"`
	Cached         bool                `json:"cached"`
	Interpretation string              `json:"interpretation"`
}

// HandleExtract POST /resume/extract
func (h *ResumeHandler) HandleExtract(ctx context.Context, c *app.RequestContext) {
	var req ExtractRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "text不能为空"})
		return
	}

	if req.Persist != nil && !*req.Persist {
		record, cached, err := h.service.Extract(ctx, req.Text)
		if err != nil {
			h.fail(ctx, c, err)
			return
		}
		c.JSON(consts.StatusOK, ExtractResponse{
			Record:         record,
			Cached:         cached,
			Interpretation: types.InterpretScore(record.Score.Total()),
		})
		return
	}

	res, err := h.service.ProcessText(ctx, req.Text, req.SourceChannel)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, res)
}

// searchQueryFrom 解析查询参数，非法数字按默认值处理
func searchQueryFrom(c *app.RequestContext) storage.SearchQuery {
	q := storage.SearchQuery{
		Query:    c.Query("q"),
		Category: storage.SearchCategory(c.DefaultQuery("category", string(storage.SearchAll))),
		Status:   c.Query("status"),
		Sort:     storage.SortOrder(c.DefaultQuery("sort", string(storage.SortScore))),
		Limit:    defaultSearchLimit,
	}
	if v, err := strconv.Atoi(c.Query("min_score")); err == nil && v > 0 {
		q.MinScore = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		q.Limit = min(v, maxSearchLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		q.Offset = v
	}
	if v, err := strconv.ParseBool(c.Query("shortlisted")); err == nil {
		q.Shortlisted = &v
	}
	return q
}

// SearchResponse 候选人列表
type SearchResponse struct {
	Candidates []*storage.Candidate `json:"candidates"`
	Count      int                  `json:"count"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}

// HandleSearch GET /candidates
func (h *ResumeHandler) HandleSearch(ctx context.Context, c *app.RequestContext) {
	q := searchQueryFrom(c)
	candidates, err := h.store().Search(ctx, q)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	if candidates == nil {
		candidates = []*storage.Candidate{}
	}
	// 列表不带完整记录
	for _, cand := range candidates {
		cand.Record = nil
	}
	c.JSON(consts.StatusOK, SearchResponse{
		Candidates: candidates,
		Count:      len(candidates),
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
}

// HandleStats GET /candidates/stats
func (h *ResumeHandler) HandleStats(ctx context.Context, c *app.RequestContext) {
	stats, err := h.store().Stats(ctx)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, stats)
}

// HandleGetCandidate GET /candidates/:id
func (h *ResumeHandler) HandleGetCandidate(ctx context.Context, c *app.RequestContext) {
	cand, err := h.store().Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, cand)
}

// HandleShortlist PUT /candidates/:id/shortlist，请求体 {"shortlisted": bool}，缺省为true
func (h *ResumeHandler) HandleShortlist(ctx context.Context, c *app.RequestContext) {
	body := struct {
		Shortlisted *bool `json:"shortlisted"`
	}{}
	if raw := c.Request.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON"})
			return
		}
	}
	shortlisted := body.Shortlisted == nil || *body.Shortlisted

	id := c.Param("id")
	if err := h.store().SetShortlisted(ctx, id, shortlisted); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"id": id, "shortlisted": shortlisted})
}

// HandleUpdateStatus PUT /candidates/:id/status，请求体 {"status": "Active"|"Archived"}
func (h *ResumeHandler) HandleUpdateStatus(ctx context.Context, c *app.RequestContext) {
	body := struct {
		Status string `json:"status"`
	}{}
	if err := json.Unmarshal(c.Request.Body(), &body); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON"})
		return
	}
	if !storage.IsValidStatus(body.Status) {
		c.JSON(consts.StatusBadRequest, utils.H{"error": fmt.Sprintf("无效的状态: %q", body.Status)})
		return
	}

	id := c.Param("id")
	if err := h.store().UpdateStatus(ctx, id, body.Status); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"id": id, "status": body.Status})
}

// HandleDeleteCandidate DELETE /candidates/:id
func (h *ResumeHandler) HandleDeleteCandidate(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if err := h.store().Delete(ctx, id); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"id": id, "deleted": true})
}

// HandleSuggestSkills GET /skills/suggest?job=
func (h *ResumeHandler) HandleSuggestSkills(ctx context.Context, c *app.RequestContext) {
	job := c.Query("job")
	if strings.TrimSpace(job) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job不能为空"})
		return
	}
	skills := h.vocab.SuggestSkills(job)
	if skills == nil {
		skills = []string{}
	}
	c.JSON(consts.StatusOK, utils.H{"job": job, "skills": skills})
}

// HandleHealth GET /health，任一检查失败返回503
func (h *ResumeHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	status := "ok"
	code := consts.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			code = consts.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}
	c.JSON(code, utils.H{"status": status, "components": components})
}
