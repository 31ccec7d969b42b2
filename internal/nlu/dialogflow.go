package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/jwt"

	"github.com/AlanMartines/ifpbbot/internal/config"
)

const dialogflowScope = "https://www.googleapis.com/auth/cloud-platform"

// Dialogflow calls the Dialogflow ES v2 REST API with a service-account
// authorized client. The backend session ID is the conversation's store key,
// so backend state and stored state always refer to the same conversation.
type Dialogflow struct {
	projectID    string
	languageCode string
	baseURL      string
	httpClient   *http.Client
}

func NewDialogflow(cfg *config.Config) *Dialogflow {
	jc := &jwt.Config{
		Email:        cfg.ClientEmail,
		PrivateKey:   []byte(cfg.DialogflowPrivateKey()),
		PrivateKeyID: cfg.PrivateKeyID,
		TokenURL:     cfg.TokenURI,
		Scopes:       []string{dialogflowScope},
	}

	client := jc.Client(context.Background())
	client.Timeout = config.RequestTimeout

	return &Dialogflow{
		projectID:    cfg.ProjectID,
		languageCode: cfg.LanguageCode,
		baseURL:      "https://dialogflow.googleapis.com/v2",
		httpClient:   client,
	}
}

func (d *Dialogflow) sessionPath(sessionKey string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", d.projectID, url.PathEscape(sessionKey))
}

func (d *Dialogflow) DetectIntent(ctx context.Context, sessionKey, text string) (*QueryResult, error) {
	reqBody := map[string]any{
		"queryInput": map[string]any{
			"text": map[string]any{
				"text":         text,
				"languageCode": d.languageCode,
			},
		},
	}

	var resp struct {
		QueryResult *QueryResult `json:"queryResult"`
	}
	endpoint := fmt.Sprintf("%s/%s:detectIntent", d.baseURL, d.sessionPath(sessionKey))
	if err := d.post(ctx, endpoint, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("detect intent: %w", err)
	}
	if resp.QueryResult == nil {
		return nil, fmt.Errorf("detect intent: empty query result")
	}
	return resp.QueryResult, nil
}

func (d *Dialogflow) SetContexts(ctx context.Context, sessionKey string, contexts []json.RawMessage) error {
	endpoint := fmt.Sprintf("%s/%s/contexts", d.baseURL, d.sessionPath(sessionKey))
	for _, c := range contexts {
		var body any
		if err := json.Unmarshal(c, &body); err != nil {
			return fmt.Errorf("set contexts: decode stored context: %w", err)
		}
		if err := d.post(ctx, endpoint, body, nil); err != nil {
			return fmt.Errorf("set contexts: %w", err)
		}
	}
	return nil
}

func (d *Dialogflow) post(ctx context.Context, endpoint string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
