package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cdr-reconciler/internal/audit"
	"cdr-reconciler/internal/auth"
	"cdr-reconciler/internal/calls"
	"cdr-reconciler/internal/cdrtime"
	"cdr-reconciler/internal/csvio"
	"cdr-reconciler/internal/rbac"
	"cdr-reconciler/internal/reconcile"
	"cdr-reconciler/internal/reporting"
	"cdr-reconciler/internal/runner"
	"cdr-reconciler/pkg/logger"
	"cdr-reconciler/pkg/utils"
)

// RunLimiter caps simultaneous runs per client. Acquire returns the token that
// Release needs.
type RunLimiter interface {
	Acquire(ctx context.Context, client string) (string, bool, error)
	Release(ctx context.Context, client, token string) error
}

// ResultCache serves repeated uploads of identical files.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// RedisLimiter is a RunLimiter on redis slots shared by every API instance.
type RedisLimiter struct {
	RDB   *redis.Client
	Limit int
	// TTL bounds a leaked slot when a process dies mid-run.
	TTL time.Duration
}

func (l RedisLimiter) key(client string) string { return "reconcile:running:" + client }

func (l RedisLimiter) Acquire(ctx context.Context, client string) (string, bool, error) {
	return utils.AcquireSlot(ctx, l.RDB, l.key(client), l.Limit, l.TTL)
}

func (l RedisLimiter) Release(ctx context.Context, client, token string) error {
	return utils.ReleaseSlot(ctx, l.RDB, l.key(client), token)
}

const (
	formatCSV     = "csv"
	formatSummary = "summary"
)

// cachedResult is what ResultCache stores; either format can be served from it.
type cachedResult struct {
	RunID   string               `json:"run_id"`
	Summary reporting.RunSummary `json:"summary"`
	CSV     string               `json:"csv"`
}

// upload is one multipart source file.
type upload struct {
	field    string
	required bool
	data     []byte
}

// Reconcile runs one reconciliation over uploaded exports.
//
// multipart fields: dashboard, console (files), merged (optional file), carrier.
// ?format=summary returns the run summary as JSON, otherwise the output CSV.
// RBAC: operator, admin or super_admin.
func (h Handlers) Reconcile(c *gin.Context) {
	if h.Runner == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "runner not configured"})
		return
	}
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	format := c.DefaultQuery("format", formatCSV)
	if format != formatCSV && format != formatSummary {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "format must be csv or summary"})
		return
	}

	client, ok := rbac.TargetClient(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	carrier := c.PostForm("carrier")
	if carrier == "" && h.Jobs != nil {
		if j, found := h.Jobs.Find(client); found {
			carrier = j.Carrier
		}
	}

	uploads := []*upload{
		{field: "dashboard", required: true},
		{field: "console", required: true},
		{field: "merged"},
	}
	for _, u := range uploads {
		data, err := readUpload(c, u.field)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if data == nil && u.required {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": u.field + " file required"})
			return
		}
		u.data = data
	}

	digest := inputDigest(client, carrier, uploads)
	id, _ := auth.IdentityFrom(ctx)
	actor := audit.Actor{UserID: id.UserID, Role: id.Role, IP: c.ClientIP()}

	if h.Cache != nil {
		if payload, hit, err := h.Cache.Get(ctx, digest); err != nil {
			log.Warn("result cache read failed", "err", err)
		} else if hit {
			var cached cachedResult
			if err := json.Unmarshal(payload, &cached); err == nil {
				if h.Runner.Audit != nil {
					if err := h.Runner.Audit.LogRun(ctx, audit.EventTypeCacheHit, client, cached.RunID, digest, actor, "served from cache", nil); err != nil {
						log.Warn("audit event not stored", "type", audit.EventTypeCacheHit, "err", err)
					}
				}
				c.Header("X-Cache", "hit")
				respond(c, format, cached)
				return
			}
		}
	}

	if h.Limiter != nil {
		token, acquired, err := h.Limiter.Acquire(ctx, client)
		if err != nil {
			log.Error("run limiter failed", "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "run limiter unavailable"})
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many concurrent runs for client"})
			return
		}
		defer func() {
			if err := h.Limiter.Release(context.WithoutCancel(ctx), client, token); err != nil {
				log.Warn("run limiter release failed", "err", err)
			}
		}()
	}

	inputs := runner.Inputs{Headers: map[calls.Source][]string{}}
	targets := []*[]reconcile.Row{&inputs.Dashboard, &inputs.Console, &inputs.Merged}
	for i, u := range uploads {
		if u.data == nil {
			continue
		}
		tbl, err := csvio.Parse(u.data)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("%s: %v", u.field, err)})
			return
		}
		for _, w := range tbl.Warnings {
			log.Warn("csv row warning", "file", u.field, "row", w.Row, "message", w.Message)
		}
		*targets[i] = tbl.Rows
		inputs.Headers[calls.Source(u.field)] = tbl.Header
	}

	res, err := h.Runner.Run(logger.With(ctx, log), runner.Request{
		Job:    reconcile.Job{Client: client, Carrier: carrier},
		Inputs: inputs,
		Actor:  actor,
		Digest: digest,
	})
	if err != nil {
		if isInputError(err) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	var buf bytes.Buffer
	if err := csvio.Write(&buf, reconcile.Header, reconcile.Table(res.Rows)); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "output failed"})
		return
	}
	out := cachedResult{RunID: res.RunID, Summary: res.Summary, CSV: buf.String()}

	if h.Cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			if err := h.Cache.Set(ctx, digest, payload); err != nil {
				log.Warn("result cache write failed", "err", err)
			}
		}
	}
	c.Header("X-Cache", "miss")
	respond(c, format, out)
}

func respond(c *gin.Context, format string, r cachedResult) {
	c.Header("X-Run-Id", r.RunID)
	if format == formatSummary {
		c.JSON(http.StatusOK, r.Summary)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, r.RunID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(r.CSV))
}

// readUpload returns nil data when the field is absent.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: invalid upload", field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: invalid upload", field)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: read failed", field)
	}
	return data, nil
}

func inputDigest(client, carrier string, uploads []*upload) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", client, carrier)
	for _, u := range uploads {
		fmt.Fprintf(h, "%s\x00%d\x00", u.field, len(u.data))
		h.Write(u.data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func isInputError(err error) bool {
	return errors.Is(err, cdrtime.ErrUnsupportedRegion) ||
		errors.Is(err, cdrtime.ErrInvalidISO) ||
		errors.Is(err, reconcile.ErrMissingColumn) ||
		errors.Is(err, runner.ErrNoInputs)
}
