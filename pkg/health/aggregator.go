package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cryptomarket/pkg/httpclient"
)

// DefaultTimeout は依存サービス1件あたりの確認タイムアウト。データ取得より短くする。
const DefaultTimeout = 5 * time.Second

// Status は依存サービスまたは全体の状態。
type Status string

const (
	// StatusHealthy は正常。
	StatusHealthy Status = "healthy"
	// StatusUnhealthy は異常。
	StatusUnhealthy Status = "unhealthy"
)

// Dependency は確認対象の依存サービス。起動時に設定され、以後変更されない。
type Dependency struct {
	// Name はレポート上の識別名。
	Name string
	// BaseURL は依存サービスのベースURL。
	BaseURL string
	// Path はヘルスチェック用のパス。BaseURLの後ろにそのまま連結される。
	Path string
}

// Probe は1件の依存サービスの確認結果。
type Probe struct {
	// Name は依存サービスの識別名。
	Name string `json:"-"`
	// Status は確認結果の状態。
	Status Status `json:"status"`
	// Error は異常時の原因。
	Error string `json:"error,omitempty"`
}

// Report は全依存サービスの確認結果の集約。
type Report struct {
	// Status は全体の状態。1件でも異常があれば異常。
	Status Status
	// Probes は依存サービス名ごとの確認結果。
	Probes map[string]Probe
	// Timestamp は集約時刻。
	Timestamp time.Time
}

// Healthy は全体が正常かどうかを返す。
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Recorder は依存サービスごとの確認結果を受け取る。
type Recorder interface {
	// RecordProbe は依存サービスの状態を記録する。
	RecordProbe(name string, healthy bool)
}

// Aggregator は依存サービスを確認して結果を集約する。
// 生成後は不変であり、複数のリクエストから並行して共有できる。
type Aggregator struct {
	// httpClient は全依存サービスで共有するHTTPクライアント。
	httpClient *http.Client
	// timeout は1件あたりのタイムアウト。
	timeout time.Duration
	// logger は異常時のログ出力先。
	logger *zap.Logger
	// recorder は確認結果の通知先。nilの場合は通知しない。
	recorder Recorder
	// now は現在時刻を返す。
	now func() time.Time
}

// Option は Aggregator の設定を変更する関数。
type Option func(*Aggregator)

// WithTimeout は1件あたりのタイムアウトを設定する。0以下の値は無視する。
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger はロガーを設定する。
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder は確認結果の通知先を設定する。
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) {
		a.recorder = r
	}
}

// WithClock は時刻の取得元を差し替える。
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator は新しいAggregatorを生成する。
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Check は全依存サービスを並行に確認し、レポートを返す。
// 各確認は自身のタイムアウトで打ち切られ、他の確認には影響しない。
func (a *Aggregator) Check(ctx context.Context, deps []Dependency) Report {
	probes := make([]Probe, len(deps))

	var g errgroup.Group
	for i, dep := range deps {
		g.Go(func() error {
			probes[i] = a.probe(ctx, dep)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    StatusHealthy,
		Probes:    make(map[string]Probe, len(probes)),
		Timestamp: a.now().UTC(),
	}
	for _, p := range probes {
		report.Probes[p.Name] = p
		if p.Status == StatusUnhealthy {
			report.Status = StatusUnhealthy
		}
	}
	return report
}

// probe は1件の依存サービスを確認する。
func (a *Aggregator) probe(ctx context.Context, dep Dependency) Probe {
	client := httpclient.New(dep.BaseURL,
		httpclient.WithHTTPClient(a.httpClient),
		httpclient.WithTimeout(a.timeout),
		httpclient.WithName(dep.Name),
	)

	p := Probe{Name: dep.Name, Status: StatusHealthy}
	if err := client.Probe(ctx, dep.Path); err != nil {
		p.Status = StatusUnhealthy
		p.Error = probeError(err)
		a.logger.Warn("依存サービスが異常です",
			zap.String("service", dep.Name),
			zap.String("error", p.Error),
		)
	}
	if a.recorder != nil {
		a.recorder.RecordProbe(dep.Name, p.Status == StatusHealthy)
	}
	return p
}

// probeError はレポートに載せるエラー文字列を返す。
func probeError(err error) string {
	var fe *httpclient.FetchError
	if errors.As(err, &fe) {
		if fe.Timeout() {
			return "Request timeout."
		}
		return fe.Detail()
	}
	return err.Error()
}
