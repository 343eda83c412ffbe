package sms

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to an HTTP SMS gateway with basic auth. Message delivery
// is fire-and-forget from the platform's point of view.
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Send(phone, message string) error {
	payload := sendRequest{Phone: phone, Message: message}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/send", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SMS gateway returned %d: %s", resp.StatusCode, string(data))
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode SMS response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("SMS gateway rejected message: %s", result.Message)
	}
	return nil
}
