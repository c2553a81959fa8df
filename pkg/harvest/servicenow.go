// Package harvest pulls cloud account records out of the ServiceNow CMDB and
// publishes the derived ownership datasets.
package harvest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// accountListPath is the CMDB table export for cloud service accounts.
const accountListPath = "/cmdb_ci_cloud_service_account_list.do"

// DefaultTimeout bounds one export request.
const DefaultTimeout = 10 * time.Second

// Row is one account record from the CMDB extract.
type Row struct {
	Name            string
	AccountID       string
	Environment     string
	AssignmentGroup string
	Email           string
}

// Fetcher produces CMDB account rows.
type Fetcher interface {
	FetchAccounts(ctx context.Context) ([]Row, error)
}

// Client fetches the cloud account extract from a ServiceNow instance.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a ServiceNow client. A zero timeout falls back to
// DefaultTimeout.
func NewClient(baseURL, username, password string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// FetchAccounts downloads the account table as CSV and decodes it.
func (c *Client) FetchAccounts(ctx context.Context) ([]Row, error) {
	query := url.Values{}
	query.Set("CSV", "")
	query.Set("sysparm_fields", "name,account_id,environment,assignment_group,assignment_group.email")

	u := c.baseURL + accountListPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create servicenow request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch servicenow accounts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("servicenow returned status %d", resp.StatusCode)
	}

	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode servicenow csv: %w", err)
	}

	c.logger.Debug("fetched servicenow accounts", "rows", len(rows))
	return rows, nil
}

// decodeRows reads the CSV export, indexing columns by header name so the
// field order in the export does not matter.
func decodeRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty response")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"name", "account_id", "environment", "assignment_group", "assignment_group.email"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i := idx[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rows = append(rows, Row{
			Name:            field(record, "name"),
			AccountID:       field(record, "account_id"),
			Environment:     field(record, "environment"),
			AssignmentGroup: field(record, "assignment_group"),
			Email:           field(record, "assignment_group.email"),
		})
	}

	return rows, nil
}
