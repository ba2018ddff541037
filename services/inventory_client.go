package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tablebook/reservation-app/models"
)

// InventoryClient talks to the inventory service over HTTP, implementing
// RestaurantDirectory and TableInventory. Transport failures and timeouts are
// reported as UpstreamUnavailableError: an unknown outcome is never success.
type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope matches the JSON response shape of the inventory service.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ic *InventoryClient) GetRestaurant(ctx context.Context, restaurantID uint) (*RestaurantInfo, error) {
	endpoint := fmt.Sprintf("%s/restaurants/%d", ic.baseURL, restaurantID)
	body, status, err := ic.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Service: "inventory", Op: "get restaurant", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &models.NotFoundError{Entity: "restaurant", ID: fmt.Sprint(restaurantID)}
	}
	if status != http.StatusOK {
		return nil, &models.UpstreamUnavailableError{Service: "inventory", Op: "get restaurant",
			Err: fmt.Errorf("unexpected status %d", status)}
	}
	var info RestaurantInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &models.UpstreamUnavailableError{Service: "inventory", Op: "get restaurant", Err: err}
	}
	return &info, nil
}

func (ic *InventoryClient) IsAvailable(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error) {
	endpoint := fmt.Sprintf("%s/restaurants/%d/tables/%d/availability?%s",
		ic.baseURL, restaurantID, tableID, rangeQuery(date, rng).Encode())
	body, status, err := ic.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &models.UpstreamUnavailableError{Service: "inventory", Op: "check availability", Err: err}
	}
	if status == http.StatusNotFound {
		return false, &models.NotFoundError{Entity: "table", ID: fmt.Sprint(tableID)}
	}
	if status != http.StatusOK {
		return false, &models.UpstreamUnavailableError{Service: "inventory", Op: "check availability",
			Err: fmt.Errorf("unexpected status %d", status)}
	}
	var data struct {
		Available bool `json:"available"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return false, &models.UpstreamUnavailableError{Service: "inventory", Op: "check availability", Err: err}
	}
	return data.Available, nil
}

func (ic *InventoryClient) AvailableTables(ctx context.Context, restaurantID uint, date string, rng models.TimeRange, partySize int) ([]TableInfo, error) {
	q := rangeQuery(date, rng)
	q.Set("party_size", fmt.Sprint(partySize))
	endpoint := fmt.Sprintf("%s/restaurants/%d/availability?%s", ic.baseURL, restaurantID, q.Encode())
	body, status, err := ic.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Service: "inventory", Op: "list available tables", Err: err}
	}
	if status != http.StatusOK {
		return nil, &models.UpstreamUnavailableError{Service: "inventory", Op: "list available tables",
			Err: fmt.Errorf("unexpected status %d", status)}
	}
	var tables []TableInfo
	if err := json.Unmarshal(body, &tables); err != nil {
		return nil, &models.UpstreamUnavailableError{Service: "inventory", Op: "list available tables", Err: err}
	}
	return tables, nil
}

// Reserve asks the inventory service to hold the table. A conflict response
// means another booker won the slot; that is reported as held=false, not as
// an error, so the orchestrator can compensate and surface
// SlotUnavailableError itself.
func (ic *InventoryClient) Reserve(ctx context.Context, call ReserveCall) (bool, error) {
	endpoint := fmt.Sprintf("%s/restaurants/%d/tables/%d/reserve", ic.baseURL, call.RestaurantID, call.TableID)
	payload := map[string]interface{}{
		"date":             call.Date,
		"start":            call.Range.Start.Format("15:04"),
		"end":              call.Range.End.Format("15:04"),
		"seats":            call.Seats,
		"customer_name":    call.CustomerName,
		"customer_email":   call.CustomerEmail,
		"special_requests": call.SpecialRequests,
	}
	_, status, err := ic.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return false, &models.UpstreamUnavailableError{Service: "inventory", Op: "reserve table", Err: err}
	}
	switch status {
	case http.StatusCreated:
		return true, nil
	case http.StatusConflict:
		return false, nil
	case http.StatusNotFound:
		return false, &models.NotFoundError{Entity: "table", ID: fmt.Sprint(call.TableID)}
	default:
		return false, &models.UpstreamUnavailableError{Service: "inventory", Op: "reserve table",
			Err: fmt.Errorf("unexpected status %d", status)}
	}
}

func (ic *InventoryClient) Release(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error) {
	return ic.slotCall(ctx, "release", restaurantID, tableID, date, rng)
}

func (ic *InventoryClient) Confirm(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error) {
	return ic.slotCall(ctx, "confirm", restaurantID, tableID, date, rng)
}

func (ic *InventoryClient) Complete(ctx context.Context, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error) {
	return ic.slotCall(ctx, "complete", restaurantID, tableID, date, rng)
}

func (ic *InventoryClient) slotCall(ctx context.Context, op string, restaurantID, tableID uint, date string, rng models.TimeRange) (bool, error) {
	endpoint := fmt.Sprintf("%s/restaurants/%d/tables/%d/%s", ic.baseURL, restaurantID, tableID, op)
	payload := map[string]interface{}{
		"date":  date,
		"start": rng.Start.Format("15:04"),
		"end":   rng.End.Format("15:04"),
	}
	body, status, err := ic.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return false, &models.UpstreamUnavailableError{Service: "inventory", Op: op + " slot", Err: err}
	}
	if status != http.StatusOK {
		return false, nil
	}
	if op == "release" {
		var data struct {
			Released bool `json:"released"`
		}
		if err := json.Unmarshal(body, &data); err == nil {
			return data.Released, nil
		}
	}
	return true, nil
}

// do issues the request and unwraps the response envelope. The returned error
// covers transport-level failure only; HTTP status handling is the caller's.
func (ic *InventoryClient) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ic.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw, resp.StatusCode, nil
	}
	return env.Data, resp.StatusCode, nil
}

func rangeQuery(date string, rng models.TimeRange) url.Values {
	q := url.Values{}
	q.Set("date", date)
	q.Set("start", rng.Start.Format("15:04"))
	q.Set("end", rng.End.Format("15:04"))
	return q
}
