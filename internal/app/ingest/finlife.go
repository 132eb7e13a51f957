package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dayoung-ko/finsync/internal/pkg/model"
	"go.uber.org/zap"
)

const creditLoanPath = "/creditLoanProductsSearch.json"

// UpstreamError is a non-success error envelope returned inside an otherwise
// well-formed page response.
type UpstreamError struct {
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error envelope: code=%s message=%q", e.Code, e.Message)
}

var _ DisclosureClient = &FinlifeClient{}

// FinlifeClient reads one disclosure category page by page from the public
// disclosure API. A category is a top financial-group code (e.g. "020000" for
// banks). The fetch is all-or-nothing per category: any transport failure or
// error envelope discards everything accumulated in the attempt.
type FinlifeClient struct {
	baseURL    string
	authKey    string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFinlifeClient(baseURL, authKey string, pageSize int, httpClient *http.Client, logger *zap.Logger) *FinlifeClient {
	return &FinlifeClient{
		baseURL:    baseURL,
		authKey:    authKey,
		pageSize:   pageSize,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchCategory retrieves every page of one category and returns the
// concatenated product and option descriptors. The page loop bound is frozen
// from page 1's envelope; later envelopes are only checked for error codes.
func (c *FinlifeClient) FetchCategory(ctx context.Context, category string) ([]model.Product, []model.Option, error) {
	first, err := c.fetchPage(ctx, category, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("page 1: %w", err)
	}

	maxPage := first.MaxPageNo
	c.logger.Debug("fetched first page",
		zap.String("category", category),
		zap.Int("maxPage", maxPage),
		zap.Int("totalCount", first.TotalCount))

	products := first.products()
	options := first.options()
	for page := 2; page <= maxPage; page++ {
		env, err := c.fetchPage(ctx, category, page)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", page, err)
		}
		products = append(products, env.products()...)
		options = append(options, env.options()...)
	}

	c.logger.Info("fetched category",
		zap.String("category", category),
		zap.Int("pages", maxPage),
		zap.Int("products", len(products)),
		zap.Int("options", len(options)))
	return products, options, nil
}

func (c *FinlifeClient) fetchPage(ctx context.Context, category string, page int) (*pageResult, error) {
	q := url.Values{}
	q.Set("auth", c.authKey)
	q.Set("topFinGrpNo", category)
	q.Set("pageNo", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	reqURL := c.baseURL + creditLoanPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var env pageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode page envelope: %w", err)
	}

	if !successCode(env.Result.ErrCd) {
		return nil, &UpstreamError{Code: env.Result.ErrCd, Message: env.Result.ErrMsg}
	}
	return &env.Result, nil
}

func successCode(cd string) bool {
	return cd == "" || cd == "0" || cd == "000"
}

// pageEnvelope mirrors the upstream response: one "result" object carrying the
// pagination envelope plus the product (baseList) and rate-option (optionList)
// descriptors of that page.
type pageEnvelope struct {
	Result pageResult `json:"result"`
}

type pageResult struct {
	PrdtDiv    string          `json:"prdt_div"`
	TotalCount int             `json:"total_count"`
	MaxPageNo  int             `json:"max_page_no"`
	NowPageNo  int             `json:"now_page_no"`
	ErrCd      string          `json:"err_cd"`
	ErrMsg     string          `json:"err_msg"`
	BaseList   []productRecord `json:"baseList"`
	OptionList []optionRecord  `json:"optionList"`
}

func (r *pageResult) products() []model.Product {
	out := make([]model.Product, 0, len(r.BaseList))
	for _, rec := range r.BaseList {
		out = append(out, rec.toModel())
	}
	return out
}

func (r *pageResult) options() []model.Option {
	out := make([]model.Option, 0, len(r.OptionList))
	for _, rec := range r.OptionList {
		out = append(out, rec.toModel())
	}
	return out
}

type productRecord struct {
	DclsMonth      string `json:"dcls_month"`
	FinCoNo        string `json:"fin_co_no"`
	FinPrdtCd      string `json:"fin_prdt_cd"`
	CrdtPrdtType   string `json:"crdt_prdt_type"`
	KorCoNm        string `json:"kor_co_nm"`
	FinPrdtNm      string `json:"fin_prdt_nm"`
	JoinWay        string `json:"join_way"`
	CBName         string `json:"cb_name"`
	CrdtPrdtTypeNm string `json:"crdt_prdt_type_nm"`
	DclsStrtDay    string `json:"dcls_strt_day"`
	DclsEndDay     string `json:"dcls_end_day"`
	FinCoSubmDay   string `json:"fin_co_subm_day"`
}

func (r productRecord) toModel() model.Product {
	return model.Product{
		DisclosureMonth: r.DclsMonth,
		InstitutionCode: model.InstitutionCode(r.FinCoNo),
		ProductCode:     model.ProductCode(r.FinPrdtCd),
		ProductTypeCode: r.CrdtPrdtType,
		InstitutionName: r.KorCoNm,
		ProductName:     r.FinPrdtNm,
		JoinWay:         r.JoinWay,
		CBName:          r.CBName,
		ProductTypeName: r.CrdtPrdtTypeNm,
		DisclosureStart: model.ParseDisclosureDate(r.DclsStrtDay),
		DisclosureEnd:   model.ParseDisclosureDate(r.DclsEndDay),
		SubmittedOn:     model.ParseDisclosureDate(r.FinCoSubmDay),
	}
}

type optionRecord struct {
	FinCoNo            string    `json:"fin_co_no"`
	FinPrdtCd          string    `json:"fin_prdt_cd"`
	CrdtLendRateType   string    `json:"crdt_lend_rate_type"`
	CrdtLendRateTypeNm string    `json:"crdt_lend_rate_type_nm"`
	CrdtGrad1          rateValue `json:"crdt_grad_1"`
	CrdtGrad4          rateValue `json:"crdt_grad_4"`
	CrdtGrad5          rateValue `json:"crdt_grad_5"`
	CrdtGrad6          rateValue `json:"crdt_grad_6"`
	CrdtGrad10         rateValue `json:"crdt_grad_10"`
	CrdtGrad11         rateValue `json:"crdt_grad_11"`
	CrdtGrad12         rateValue `json:"crdt_grad_12"`
	CrdtGrad13         rateValue `json:"crdt_grad_13"`
	CrdtGradAvg        rateValue `json:"crdt_grad_avg"`
}

func (r optionRecord) toModel() model.Option {
	rateType, ok := model.ParseRateType(r.CrdtLendRateType)
	if !ok {
		// keep the raw code so the storage uniqueness check still applies
		rateType = model.RateType(r.CrdtLendRateType)
	}
	return model.Option{
		InstitutionCode: model.InstitutionCode(r.FinCoNo),
		ProductCode:     model.ProductCode(r.FinPrdtCd),
		RateType:        rateType,
		RateTypeName:    r.CrdtLendRateTypeNm,
		Grade1:          model.ParseRate(string(r.CrdtGrad1)),
		Grade4:          model.ParseRate(string(r.CrdtGrad4)),
		Grade5:          model.ParseRate(string(r.CrdtGrad5)),
		Grade6:          model.ParseRate(string(r.CrdtGrad6)),
		Grade10:         model.ParseRate(string(r.CrdtGrad10)),
		Grade11:         model.ParseRate(string(r.CrdtGrad11)),
		Grade12:         model.ParseRate(string(r.CrdtGrad12)),
		Grade13:         model.ParseRate(string(r.CrdtGrad13)),
		GradeAvg:        model.ParseRate(string(r.CrdtGradAvg)),
	}
}

// rateValue accepts the three shapes the source has been seen to disclose a
// rate in: a JSON number, a quoted string, or null. The raw text is kept; the
// model layer decides what parses as a decimal.
type rateValue string

func (v *rateValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rateValue(s)
		return nil
	}
	*v = rateValue(b)
	return nil
}
