package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Task is one delivery-dispatch request for an order group.
type Task struct {
	OrderGroupID  string  `json:"order_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	Address       string  `json:"address"`
	Amount        float64 `json:"amount"`
}

// TaskCreator hands a task to the delivery partner and returns its task id.
type TaskCreator interface {
	CreateTask(ctx context.Context, task Task) (string, error)
}

type Client struct {
	client       *resty.Client
	apiKey       string
	storeName    string
	storeAddress string
}

func NewClient(baseURL, apiKey, storeName, storeAddress string) *Client {
	return &Client{
		client:       resty.New().SetTimeout(15 * time.Second).SetBaseURL(baseURL),
		apiKey:       apiKey,
		storeName:    storeName,
		storeAddress: storeAddress,
	}
}

func (c *Client) CreateTask(ctx context.Context, task Task) (string, error) {
	body := map[string]interface{}{
		"order_id":       task.OrderGroupID,
		"amount":         task.Amount,
		"pickup_name":    c.storeName,
		"pickup_address": c.storeAddress,
		"drop_name":      task.CustomerName,
		"drop_phone":     task.CustomerPhone,
		"drop_address":   task.Address,
	}

	var result struct {
		TaskID string `json:"task_id"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post("/tasks")

	if err != nil {
		return "", fmt.Errorf("dispatch: create task: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("dispatch: create task failed with status %d: %s", resp.StatusCode(), resp.Body())
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("dispatch: task id missing in response")
	}
	return result.TaskID, nil
}
