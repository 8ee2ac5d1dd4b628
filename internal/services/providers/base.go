package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"RegimeNews/internal/domain/errs"
	svcmetrics "RegimeNews/internal/service/metrics"
	xhttp "RegimeNews/pkg/http"
	"RegimeNews/pkg/util"

	"github.com/sony/gobreaker"
)

const defaultAttempts = 3

type row = map[string]interface{}

// httpBase centralizes list-endpoint calls for the calendar and price providers.
type httpBase struct {
	name     string
	baseURL  string
	client   *xhttp.Client
	attempts int
	backoff  time.Duration
}

func newHTTPBase(name, baseURL string, client *xhttp.Client) httpBase {
	return httpBase{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		attempts: defaultAttempts,
		backoff:  200 * time.Millisecond,
	}
}

// getList fetches path and requires a JSON array of objects in the answer.
func (b *httpBase) getList(ctx context.Context, endpoint, path string, params map[string][]string) (rows []row, err error) {
	start := time.Now()
	defer func() { svcmetrics.ObserveFetch(b.name, endpoint, start, len(rows), err) }()

	var body []byte
	for i := 1; i <= b.attempts; i++ {
		body, err = b.client.Fetch(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         b.baseURL + path,
			QueryParams: params,
		})
		if err == nil || !retryable(err) || i == b.attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * b.backoff):
		case <-ctx.Done():
			return nil, errs.UpstreamFetch(b.name+"."+endpoint, ctx.Err())
		}
	}
	if err != nil {
		return nil, errs.UpstreamFetch(b.name+"."+endpoint, err)
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errs.UpstreamFetch(b.name+"."+endpoint, fmt.Errorf("decode json: %w", err))
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errs.UpstreamFetch(b.name+"."+endpoint, errors.New("response not a list"))
	}
	rows = make([]row, 0, len(list))
	for _, item := range list {
		if r, ok := item.(map[string]interface{}); ok {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}
	return true
}

// firstString returns the first non-empty value among keys, stringified.
func firstString(r row, keys ...string) string {
	for _, k := range keys {
		if s := stringify(r[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// intValue converts a numeric or numeric-string field.
func intValue(v interface{}) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func floatValue(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// floatField reads the first key present in r, even when its value is null.
func floatField(r row, keys ...string) *float64 {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		if f, ok := floatValue(v); ok {
			return &f
		}
		return nil
	}
	return nil
}

// truthy mirrors "value or fallback" selection: nil, "", 0 and false are empty.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return x != 0
	case bool:
		return x
	default:
		return true
	}
}

func firstTruthy(r row, keys ...string) interface{} {
	for _, k := range keys {
		if truthy(r[k]) {
			return r[k]
		}
	}
	return nil
}

func dateParams(start, end time.Time) map[string][]string {
	return map[string][]string{
		"from": {util.FormatDate(start)},
		"to":   {util.FormatDate(end)},
	}
}
