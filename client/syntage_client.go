package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/haycash/toolbox/dto"
)

const (
	sandboxBaseURL    = "https://api.sandbox.syntage.com"
	productionBaseURL = "https://api.syntage.com"

	userAgent = "HayCash-Concentracion/1.0"

	itemsPerPage = 1000
	maxPages     = 400
	maxRetries   = 5

	listTimeout  = 35 * time.Second
	probeTimeout = 8 * time.Second
	xmlTimeout   = 15 * time.Second
)

// BaseURLFor maps an environment name to the Syntage API base URL.
// Anything that is not "sandbox" is production.
func BaseURLFor(environment string) string {
	if strings.EqualFold(strings.TrimSpace(environment), "sandbox") {
		return sandboxBaseURL
	}
	return productionBaseURL
}

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// SyntageClient talks to the Syntage invoice API. Every call retries
// transient failures with exponential backoff and records the outcome
// in a monitor the status endpoint exposes.
type SyntageClient struct {
	baseURL string
	apiKey  string

	listClient  *http.Client
	probeClient *http.Client
	xmlClient   *http.Client
	backoffBase time.Duration

	mu     sync.Mutex
	status dto.APIStatus
}

func NewSyntageClient(environment, apiKey string) *SyntageClient {
	return &SyntageClient{
		baseURL:     BaseURLFor(environment),
		apiKey:      apiKey,
		listClient:  &http.Client{Timeout: listTimeout},
		probeClient: &http.Client{Timeout: probeTimeout},
		xmlClient:   &http.Client{Timeout: xmlTimeout},
		backoffBase: time.Second,
	}
}

// BaseURL returns the resolved API base URL.
func (c *SyntageClient) BaseURL() string {
	return c.baseURL
}

// Status returns the last observed API call.
func (c *SyntageClient) Status() dto.APIStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *SyntageClient) setStatus(ok bool, code int, rawURL, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = dto.APIStatus{OK: ok, StatusCode: code, URL: rawURL, Detail: detail}
}

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

// do runs one logical request, retrying 429 and 5xx responses as well
// as transport errors. The monitor records the final outcome only.
func (c *SyntageClient) do(ctx context.Context, httpClient *http.Client, method, endpoint string, query url.Values, headers map[string]string) (*apiResponse, error) {
	fullURL := endpoint
	if len(query) > 0 {
		fullURL = endpoint + "?" + query.Encode()
	}

	var resp *apiResponse
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = c.attempt(ctx, httpClient, method, fullURL, headers)
		if err == nil && !retryableStatus[resp.status] {
			break
		}
		if attempt >= maxRetries {
			break
		}

		wait := c.backoffBase << attempt
		if err == nil {
			if ra := retryAfter(resp.header); ra > 0 {
				wait = ra
			}
		}
		select {
		case <-ctx.Done():
			c.setStatus(false, 0, fullURL, ctx.Err().Error())
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	if err != nil {
		c.setStatus(false, 0, fullURL, err.Error())
		return nil, err
	}
	c.setStatus(true, resp.status, fullURL, "")
	return resp, nil
}

func (c *SyntageClient) attempt(ctx context.Context, httpClient *http.Client, method, fullURL string, headers map[string]string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &apiResponse{status: res.StatusCode, header: res.Header, body: body}, nil
}

func retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// ListInvoices pages through a taxpayer's received invoices and returns
// the normalized rows. Paging stops on the first failed page; whatever
// accumulated so far is returned, with the failure visible in Status.
func (c *SyntageClient) ListInvoices(ctx context.Context, rfc string, from, to time.Time) []dto.InvoiceRow {
	items := c.listPages(ctx, rfc, from, to)
	rows := make([]dto.InvoiceRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, NormalizeInvoiceItem(item))
	}
	return rows
}

// ListInvoiceItems returns the raw listing items, for the XML download
// pipeline which needs the item identifiers.
func (c *SyntageClient) ListInvoiceItems(ctx context.Context, rfc string, from, to time.Time) []map[string]any {
	return c.listPages(ctx, rfc, from, to)
}

func (c *SyntageClient) listPages(ctx context.Context, rfc string, from, to time.Time) []map[string]any {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/taxpayers/" + rfc + "/invoices"

	var acc []map[string]any
	nextIDLt := ""

	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("itemsPerPage", strconv.Itoa(itemsPerPage))
		q.Set("isIssuer", "false") // recibidas only
		q.Set("issuedAt[after]", from.Format("2006-01-02")+"T00:00:00Z")
		q.Set("issuedAt[before]", to.Format("2006-01-02")+"T23:59:59Z")
		if nextIDLt != "" {
			q.Set("id[lt]", nextIDLt)
		}

		resp, err := c.do(ctx, c.listClient, http.MethodGet, endpoint, q, nil)
		if err != nil || resp.status < 200 || resp.status >= 300 {
			break
		}

		var payload map[string]any
		if err := json.Unmarshal(resp.body, &payload); err != nil {
			break
		}

		rows := memberRows(payload["hydra:member"])
		if len(rows) == 0 {
			break
		}
		acc = append(acc, rows...)

		last := ""
		for _, row := range rows {
			if id, ok := itemID(row); ok {
				last = id
			}
		}
		if last == "" {
			break
		}
		nextIDLt = last

		if len(rows) < itemsPerPage {
			break
		}
	}
	return acc
}

func memberRows(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{t}
	}
	return nil
}

var idFields = []string{"id", "@id", "invoiceId", "uuid", "documentId"}

func itemID(item map[string]any) (string, bool) {
	for _, f := range idFields {
		if s := stringify(listFirst(item[f])); strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// CFDIURLCandidates builds the download URL candidates for one listing
// item: the item's own @id path first, then /invoices/{id}/cfdi for
// every id-ish field.
func (c *SyntageClient) CFDIURLCandidates(item map[string]any) []string {
	base := strings.TrimRight(c.baseURL, "/")
	var cands []string

	if idAt := stringify(listFirst(item["@id"])); idAt != "" {
		p := idAt
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		cands = append(cands, base+p+"/cfdi")
	}
	for _, f := range []string{"uuid", "invoiceId", "documentId", "id"} {
		if v := stringify(listFirst(item[f])); v != "" {
			cands = append(cands, base+"/invoices/"+v+"/cfdi")
		}
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(cands))
	for _, u := range cands {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// ProbeFirstWorkingURL issues HEAD requests and returns the first URL
// answering 2xx.
func (c *SyntageClient) ProbeFirstWorkingURL(ctx context.Context, urls []string) (string, bool) {
	for _, u := range urls {
		resp, err := c.do(ctx, c.probeClient, http.MethodHead, u, nil, nil)
		if err != nil {
			continue
		}
		if resp.status >= 200 && resp.status < 300 {
			return u, true
		}
	}
	return "", false
}

var xmlDeclRegex = regexp.MustCompile(`^\s*<\?xml`)

// GetXML downloads one CFDI. The payload must either carry an XML
// content type or start with an XML declaration.
func (c *SyntageClient) GetXML(ctx context.Context, rawURL string) (string, bool) {
	headers := map[string]string{
		"Accept":     "application/xml, text/xml;q=0.9, */*;q=0.5",
		"User-Agent": userAgent,
	}
	resp, err := c.do(ctx, c.xmlClient, http.MethodGet, rawURL, nil, headers)
	if err != nil || resp.status < 200 || resp.status >= 300 {
		return "", false
	}

	body := string(resp.body)
	if isXMLContentType(resp.header.Get("Content-Type")) || xmlDeclRegex.MatchString(body) {
		return body, true
	}
	return "", false
}

func isXMLContentType(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "xml")
}

var compactRegex = regexp.MustCompile(`\s+`)

func compactUpper(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(compactRegex.ReplaceAllString(s, ""))
}

// NormalizeInvoiceItem maps one listing payload item onto an InvoiceRow,
// trying the same key fallbacks for every field that older API payload
// shapes used.
func NormalizeInvoiceItem(item map[string]any) dto.InvoiceRow {
	var row dto.InvoiceRow

	row.UUID = stringify(safeGet(item, "uuid", "id", "@id", "invoiceId", "documentId"))

	if issued := stringify(safeGet(item, "issuedAt", "issueDate", "date", "createdAt")); len(issued) >= 10 {
		if _, err := time.Parse("2006-01-02", issued[:10]); err == nil {
			row.Fecha = issued[:10]
		}
	}

	row.Total = numberFrom(safeGet(item, "total", "totalAmount", "amount_total", "grandTotal", "importe_total"))
	row.Moneda = strings.ToUpper(stringify(safeGet(item, "currency", "moneda")))
	row.TipoCambio = numberFrom(safeGet(item, "exchangeRate", "tipoCambio", "tipo_cambio"))
	row.MetodoPago = compactUpper(stringify(safeGet(item, "paymentMethod", "paymentType", "metodoPago")))
	row.Tipo = compactUpper(stringify(safeGet(item, "type", "tipoDeComprobante", "tipo_de_comprobante")))

	row.EmisorRFC = strings.ToUpper(stringify(firstOf(
		safeGetNested(item, "issuer", "rfc"),
		safeGet(item, "issuer.rfc", "emitter.rfc", "issuer_tax_id"))))
	row.EmisorNombre = stringify(firstOf(
		safeGetNested(item, "issuer", "name"),
		safeGet(item, "issuer.name", "emitter.name")))
	row.ReceptorRFC = strings.ToUpper(stringify(firstOf(
		safeGetNested(item, "receiver", "rfc"),
		safeGet(item, "receiver.rfc", "receiver_tax_id"))))
	row.ReceptorNombre = stringify(firstOf(
		safeGetNested(item, "receiver", "name"),
		safeGet(item, "receiver.name")))

	return row
}

func safeGet(item map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		if arr, ok := v.([]any); ok {
			if len(arr) == 0 {
				continue
			}
			return arr[0]
		}
		return v
	}
	return nil
}

func safeGetNested(item map[string]any, path ...string) any {
	var cur any = item
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
		if cur == nil {
			return nil
		}
	}
	if arr, ok := cur.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	return cur
}

func firstOf(a, b any) any {
	if a != nil {
		return a
	}
	return b
}

func listFirst(v any) any {
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	return v
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func numberFrom(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return numberFrom(stringify(v))
	}
}
