package moloni

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// resource holds what every resource client needs: the gateway and the
// settings that carry company_id.
type resource struct {
	gw       *Gateway
	settings integration.SettingsProvider
	logger   *zap.Logger
}

func (r *resource) companyID(ctx context.Context) (int, bool) {
	s, err := r.settings.Current(ctx)
	if err != nil {
		logger.WithLogger(ctx, r.logger).Error("Cannot resolve company id", zap.Error(err))
		return 0, false
	}
	return s.CompanyIDInt(), true
}

// postForm sends a form body with company_id plus the fields set by fill
func (r *resource) postForm(ctx context.Context, path string, fill func(url.Values)) *Response {
	companyID, ok := r.companyID(ctx)
	if !ok {
		return nil
	}
	form := url.Values{"company_id": {strconv.Itoa(companyID)}}
	if fill != nil {
		fill(form)
	}
	return r.gw.Post(ctx, path, form)
}

// postJSON sends the JSON body returned by build
func (r *resource) postJSON(ctx context.Context, path string, build func(companyID int) any) *Response {
	companyID, ok := r.companyID(ctx)
	if !ok {
		return nil
	}
	return r.gw.Post(ctx, path, build(companyID))
}

// setInt adds key when v is positive
func setInt(form url.Values, key string, v int) {
	if v > 0 {
		form.Set(key, strconv.Itoa(v))
	}
}

// setString adds key when v is not empty
func setString(form url.Values, key, v string) {
	if v != "" {
		form.Set(key, v)
	}
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// flexInt accepts a JSON number or a numeric string
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(int(n))
	return nil
}

// intField reads a numeric field of a JSON object response. A nil response,
// a non-object body or a missing field count as a transport failure.
func intField(resp *Response, key string) int {
	fields, ok := DecodeOK[map[string]json.RawMessage](resp)
	if !ok {
		return ledger.IDTransportFailure
	}
	raw, ok := fields[key]
	if !ok {
		return ledger.IDTransportFailure
	}
	var v flexInt
	if err := json.Unmarshal(raw, &v); err != nil {
		return ledger.IDTransportFailure
	}
	return int(v)
}

// valid reports whether the response carries valid=1
func valid(resp *Response) bool {
	return intField(resp, "valid") == 1
}

// first returns the first element of a list, or nil
func first[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}
