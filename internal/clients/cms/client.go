package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// CaseSummary is the subset of case metadata the ingestion pipeline keeps.
type CaseSummary struct {
	URN              string
	Finalised        *bool
	AreaID           *int64
	UnitID           *int64
	RegistrationDate *time.Time
}

type Charge struct {
	ID            int64
	DefendantID   int64
	Code          string
	Description   string
	LatestVerdict *time.Time
}

type Offence struct {
	ID          int64
	DefendantID int64
	Code        string
	Type        string
	Description string
	Active      string
}

type Defendant struct {
	ID        int64
	CaseID    int64
	DOB       *time.Time
	Gender    string
	Ethnicity string
	Charges   []Charge
	Offences  []Offence
}

// DocumentInfo is one entry of the case document listing.
type DocumentInfo struct {
	ID               int64
	VersionID        int64
	OriginalFileName string
	CMSDocCategory   string
	DocType          string
	FileExtension    string
	MimeType         string
}

// Client talks to the case management system's HTTP API. Authenticate must
// succeed before any other call; the client re-authenticates on its own when
// the session token is close to expiry or a request comes back 401.
type Client interface {
	Authenticate(ctx context.Context) error
	GetCaseIDFromURN(ctx context.Context, urn string) (int64, error)
	GetCaseSummary(ctx context.Context, caseID int64) (*CaseSummary, error)
	GetCaseDefendants(ctx context.Context, caseID int64, includeCharges bool, includeOffences bool) ([]Defendant, error)
	ListCaseDocuments(ctx context.Context, caseID int64) ([]DocumentInfo, error)
	DownloadData(ctx context.Context, caseID int64, documentID int64, versionID int64) ([]byte, error)
}

type client struct {
	log         *logger.Logger
	baseURL     string
	functionKey string
	username    string
	password    string
	httpClient  *http.Client

	mu         sync.Mutex
	authValues string
	tokenExp   *time.Time
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("CMS_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing CMS_BASE_URL")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	functionKey := strings.TrimSpace(os.Getenv("CMS_FUNCTION_KEY"))
	if functionKey == "" {
		return nil, fmt.Errorf("missing CMS_FUNCTION_KEY")
	}

	username := strings.TrimSpace(os.Getenv("CMS_USERNAME"))
	if username == "" {
		return nil, fmt.Errorf("missing CMS_USERNAME")
	}

	password := os.Getenv("CMS_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("missing CMS_PASSWORD")
	}

	timeoutSec := 30
	if v := os.Getenv("CMS_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:         log.With("service", "CMSClient"),
		baseURL:     baseURL,
		functionKey: functionKey,
		username:    username,
		password:    password,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type cmsHTTPError struct {
	StatusCode int
	Body       string
}

func (e *cmsHTTPError) Error() string {
	return fmt.Sprintf("cms http %d: %s", e.StatusCode, e.Body)
}

func (e *cmsHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type authResponse struct {
	Token string `json:"Token"`
}

func (c *client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/authenticate", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("x-functions-key", c.functionKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cms authenticate: %w", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("cms authenticate: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &cmsHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var auth authResponse
	if err := json.Unmarshal(raw, &auth); err != nil {
		return fmt.Errorf("cms authenticate decode: %w", err)
	}

	c.mu.Lock()
	// The full auth payload goes back verbatim in the Cms-Auth-Values header.
	c.authValues = string(raw)
	c.tokenExp = tokenExpiry(auth.Token)
	c.mu.Unlock()

	c.log.Info("CMS authentication successful")
	return nil
}

// tokenExpiry reads exp from the session token without verifying the
// signature. The token is issued and validated by the CMS; we only need the
// expiry to refresh ahead of time.
func tokenExpiry(tokenString string) *time.Time {
	if strings.TrimSpace(tokenString) == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

func (c *client) ensureAuth(ctx context.Context) (string, error) {
	c.mu.Lock()
	authValues := c.authValues
	exp := c.tokenExp
	c.mu.Unlock()

	stale := authValues == "" || (exp != nil && time.Now().After(exp.Add(-60*time.Second)))
	if !stale {
		return authValues, nil
	}
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	authValues = c.authValues
	c.mu.Unlock()
	return authValues, nil
}

func (c *client) get(ctx context.Context, path string) ([]byte, error) {
	raw, err := c.getOnce(ctx, path)
	if err == nil {
		return raw, nil
	}

	// One re-authenticated retry when the session was rejected.
	var httpErr *cmsHTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
		c.log.Warn("CMS session rejected; re-authenticating", "path", path)
		if authErr := c.Authenticate(ctx); authErr != nil {
			return nil, authErr
		}
		return c.getOnce(ctx, path)
	}
	return nil, err
}

func (c *client) getOnce(ctx context.Context, path string) ([]byte, error) {
	authValues, err := c.ensureAuth(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cms-Auth-Values", authValues)
	req.Header.Set("x-functions-key", c.functionKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &cmsHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	raw, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cms decode %s: %w", path, err)
	}
	return nil
}

type caseIdentifierPayload struct {
	ID int64 `json:"id"`
}

func (c *client) GetCaseIDFromURN(ctx context.Context, urn string) (int64, error) {
	urn = strings.TrimSpace(urn)
	if urn == "" {
		return 0, fmt.Errorf("urn required")
	}

	var identifiers []caseIdentifierPayload
	if err := c.getJSON(ctx, "/urns/"+url.PathEscape(urn)+"/case-identifiers", &identifiers); err != nil {
		return 0, err
	}
	if len(identifiers) == 0 || identifiers[0].ID == 0 {
		return 0, fmt.Errorf("no case found for urn %s", urn)
	}
	return identifiers[0].ID, nil
}

type summaryPayload struct {
	URN              string `json:"urn"`
	Finalised        *bool  `json:"finalised"`
	AreaID           *int64 `json:"areaId"`
	UnitID           *int64 `json:"unitId"`
	RegistrationDate string `json:"registrationDate"`
}

func (c *client) GetCaseSummary(ctx context.Context, caseID int64) (*CaseSummary, error) {
	var payload summaryPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/cases/%d/summary", caseID), &payload); err != nil {
		return nil, err
	}
	return &CaseSummary{
		URN:              payload.URN,
		Finalised:        payload.Finalised,
		AreaID:           payload.AreaID,
		UnitID:           payload.UnitID,
		RegistrationDate: parseAPITime(payload.RegistrationDate),
	}, nil
}

type personalDetailPayload struct {
	Ethnicity string `json:"ethnicity"`
	Gender    string `json:"gender"`
}

type chargePayload struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	LatestVerdict string `json:"latestVerdict"`
}

type offencePayload struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Active      string `json:"active"`
}

type defendantPayload struct {
	ID              int64                 `json:"id"`
	DOB             string                `json:"dob"`
	PersonalDetail  personalDetailPayload `json:"personalDetail"`
	Charges         []chargePayload       `json:"charges"`
	ProposedCharges []chargePayload       `json:"proposedCharges"`
	Offences        []offencePayload      `json:"offences"`
}

func (c *client) GetCaseDefendants(ctx context.Context, caseID int64, includeCharges bool, includeOffences bool) ([]Defendant, error) {
	var payload []defendantPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/cases/%d/defendants", caseID), &payload); err != nil {
		return nil, err
	}

	out := make([]Defendant, 0, len(payload))
	for _, d := range payload {
		defendant := Defendant{
			ID:        d.ID,
			CaseID:    caseID,
			DOB:       parseAPITime(d.DOB),
			Gender:    d.PersonalDetail.Gender,
			Ethnicity: d.PersonalDetail.Ethnicity,
		}

		if includeCharges {
			// Pre-charge cases only carry proposed charges.
			charges := d.Charges
			if len(charges) == 0 {
				charges = d.ProposedCharges
			}
			for _, ch := range charges {
				defendant.Charges = append(defendant.Charges, Charge{
					ID:            ch.ID,
					DefendantID:   d.ID,
					Code:          ch.Code,
					Description:   ch.Description,
					LatestVerdict: parseAPITime(ch.LatestVerdict),
				})
			}
		}

		if includeOffences {
			for _, of := range d.Offences {
				defendant.Offences = append(defendant.Offences, Offence{
					ID:          of.ID,
					DefendantID: d.ID,
					Code:        of.Code,
					Type:        of.Type,
					Description: of.Description,
					Active:      of.Active,
				})
			}
		}

		out = append(out, defendant)
	}

	c.log.Debug("CMS defendants fetched", "case_id", caseID, "count", len(out))
	return out, nil
}

type documentPayload struct {
	ID               int64  `json:"id"`
	VersionID        int64  `json:"versionId"`
	OriginalFileName string `json:"originalFileName"`
	CMSDocCategory   string `json:"cmsDocCategory"`
	Type             string `json:"type"`
	FileExtension    string `json:"fileExtension"`
	MimeType         string `json:"mimeType"`
}

func (c *client) ListCaseDocuments(ctx context.Context, caseID int64) ([]DocumentInfo, error) {
	var payload []documentPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/cases/%d/documents/cwa", caseID), &payload); err != nil {
		return nil, err
	}

	out := make([]DocumentInfo, 0, len(payload))
	for _, d := range payload {
		out = append(out, DocumentInfo{
			ID:               d.ID,
			VersionID:        d.VersionID,
			OriginalFileName: d.OriginalFileName,
			CMSDocCategory:   d.CMSDocCategory,
			DocType:          d.Type,
			FileExtension:    d.FileExtension,
			MimeType:         d.MimeType,
		})
	}

	c.log.Debug("CMS documents listed", "case_id", caseID, "count", len(out))
	return out, nil
}

func (c *client) DownloadData(ctx context.Context, caseID int64, documentID int64, versionID int64) ([]byte, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/cases/%d/documents/%d/versions/%d", caseID, documentID, versionID))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("cms returned empty document %d v%d", documentID, versionID)
	}
	return raw, nil
}

var apiTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseAPITime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range apiTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
