package metricspush

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/gstbook/internal/config"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const (
	exporterPrometheusRemoteWrite = "prometheus_remote_write"
	exporterPrometheusPushgateway = "prometheus_pushgateway"
	defaultPushTimeout            = 5 * time.Second
)

// Pusher sends the gathered metrics to an external collector.
type Pusher interface {
	Push(ctx context.Context, gatherer prometheus.Gatherer) error
}

// NewPusher builds a pusher from config. Misconfiguration is logged and
// disables pushing rather than failing startup.
func NewPusher(cfg config.Config, logger *zap.Logger) Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}

	exporter := strings.ToLower(strings.TrimSpace(cfg.MetricsPushExporter))
	endpoint := strings.TrimSpace(cfg.MetricsPushEndpoint)
	if exporter == "" {
		return nil
	}
	if endpoint == "" {
		logger.Warn("metrics push disabled", zap.Error(errors.New("METRICS_PUSH_ENDPOINT is required")))
		return nil
	}

	switch exporter {
	case exporterPrometheusRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			logger.Warn("metrics push disabled", zap.Error(fmt.Errorf("invalid METRICS_PUSH_ENDPOINT: %w", err)))
			return nil
		}
		return NewRemoteWritePusher(endpoint, cfg.MetricsPushToken)
	case exporterPrometheusPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName, map[string]string{
			"environment": strings.TrimSpace(cfg.Environment),
		})
	default:
		logger.Warn("metrics push disabled", zap.String("exporter", exporter))
		return nil
	}
}

// RemoteWritePusher sends metrics to a Prometheus remote_write endpoint.
type RemoteWritePusher struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

func NewRemoteWritePusher(endpoint, authToken string) *RemoteWritePusher {
	return &RemoteWritePusher{
		endpoint:   endpoint,
		authToken:  strings.TrimSpace(authToken),
		httpClient: &http.Client{Timeout: defaultPushTimeout},
	}
}

// Push gathers the registry and sends every family via remote_write.
func (p *RemoteWritePusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	if p == nil || gatherer == nil {
		return nil
	}

	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	series := buildRemoteWriteSeries(families, time.Now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	req := &prompb.WriteRequest{Timeseries: series}
	payload, err := proto.Marshal(protoadapt.MessageV2Of(req))
	if err != nil {
		return err
	}

	compressed := snappy.Encode(nil, payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// PushgatewayPusher sends metrics to a Prometheus Pushgateway.
type PushgatewayPusher struct {
	endpoint string
	job      string
	grouping map[string]string
}

func NewPushgatewayPusher(endpoint, job string, grouping map[string]string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint: endpoint,
		job:      strings.TrimSpace(job),
		grouping: grouping,
	}
}

func (p *PushgatewayPusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	if p == nil || gatherer == nil {
		return nil
	}
	if strings.TrimSpace(p.endpoint) == "" {
		return errors.New("pushgateway endpoint is required")
	}
	if p.job == "" {
		return errors.New("pushgateway job is required")
	}

	pusher := push.New(p.endpoint, p.job).Gatherer(gatherer)
	for key, value := range p.grouping {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pusher = pusher.Grouping(key, value)
	}
	return pusher.PushContext(ctx)
}

// sample is one flattened remote-write point: a family expands into one
// sample per counter/gauge child, and into _bucket, _sum and _count samples
// per histogram or summary child.
type sample struct {
	name   string
	extra  []prompb.Label
	labels []*dto.LabelPair
	value  float64
}

// buildRemoteWriteSeries converts gathered families into series with
// sorted labels, the layout remote-write receivers expect.
func buildRemoteWriteSeries(families []*dto.MetricFamily, timestampMs int64) []prompb.TimeSeries {
	var series []prompb.TimeSeries
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			for _, smp := range flatten(family.GetName(), family.GetType(), metric) {
				series = append(series, prompb.TimeSeries{
					Labels:  smp.sortedLabels(),
					Samples: []prompb.Sample{{Value: smp.value, Timestamp: timestampMs}},
				})
			}
		}
	}
	return series
}

func flatten(name string, typ dto.MetricType, metric *dto.Metric) []sample {
	if metric == nil {
		return nil
	}
	labels := metric.GetLabel()
	switch typ {
	case dto.MetricType_COUNTER:
		if c := metric.GetCounter(); c != nil {
			return []sample{{name: name, labels: labels, value: c.GetValue()}}
		}
	case dto.MetricType_GAUGE:
		if g := metric.GetGauge(); g != nil {
			return []sample{{name: name, labels: labels, value: g.GetValue()}}
		}
	case dto.MetricType_UNTYPED:
		if u := metric.GetUntyped(); u != nil {
			return []sample{{name: name, labels: labels, value: u.GetValue()}}
		}
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		h := metric.GetHistogram()
		if h == nil {
			return nil
		}
		out := make([]sample, 0, len(h.GetBucket())+3)
		sawInf := false
		for _, b := range h.GetBucket() {
			if math.IsInf(b.GetUpperBound(), +1) {
				sawInf = true
			}
			out = append(out, sample{
				name:   name + "_bucket",
				extra:  []prompb.Label{{Name: "le", Value: formatFloat(b.GetUpperBound())}},
				labels: labels,
				value:  float64(b.GetCumulativeCount()),
			})
		}
		if !sawInf {
			out = append(out, sample{
				name:   name + "_bucket",
				extra:  []prompb.Label{{Name: "le", Value: "+Inf"}},
				labels: labels,
				value:  float64(h.GetSampleCount()),
			})
		}
		return append(out,
			sample{name: name + "_sum", labels: labels, value: h.GetSampleSum()},
			sample{name: name + "_count", labels: labels, value: float64(h.GetSampleCount())},
		)
	case dto.MetricType_SUMMARY:
		sm := metric.GetSummary()
		if sm == nil {
			return nil
		}
		out := make([]sample, 0, len(sm.GetQuantile())+2)
		for _, q := range sm.GetQuantile() {
			out = append(out, sample{
				name:   name,
				extra:  []prompb.Label{{Name: "quantile", Value: formatFloat(q.GetQuantile())}},
				labels: labels,
				value:  q.GetValue(),
			})
		}
		return append(out,
			sample{name: name + "_sum", labels: labels, value: sm.GetSampleSum()},
			sample{name: name + "_count", labels: labels, value: float64(sm.GetSampleCount())},
		)
	}
	return nil
}

func (s sample) sortedLabels() []prompb.Label {
	out := make([]prompb.Label, 0, len(s.labels)+len(s.extra)+1)
	out = append(out, prompb.Label{Name: "__name__", Value: s.name})
	for _, l := range s.labels {
		out = append(out, prompb.Label{Name: l.GetName(), Value: l.GetValue()})
	}
	out = append(out, s.extra...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func formatFloat(v float64) string {
	if math.IsInf(v, +1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
