package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cartboost/cartboost-blocks-service/internal/metrics"
)

const signatureHeader = "X-Hub-Signature-256"

type pushPayload struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// DeployWebhook handles POST /webhooks/deploy
//
// Receives signed push notifications from the storefront bundle repo.
// Requests without a valid signature are rejected; pushes to branches
// other than the deploy branch are acknowledged and ignored. A
// qualifying push refreshes the registered blocks of every shop with a
// completed purchase.
func (h *Handlers) DeployWebhook(c *gin.Context) {
	if h.config.Webhook.Secret == "" {
		metrics.WebhookEventsTotal.WithLabelValues("rejected_unconfigured").Inc()
		h.logger.Error().Msg("Deploy webhook received but no secret is configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook secret not configured"})
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		metrics.WebhookEventsTotal.WithLabelValues("rejected_signature").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !verifySignature(body, signature, h.config.Webhook.Secret) {
		metrics.WebhookEventsTotal.WithLabelValues("rejected_signature").Inc()
		h.logger.Warn().Msg("Deploy webhook signature mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	branch := strings.TrimPrefix(payload.Ref, "refs/heads/")
	if branch != h.config.Webhook.DeployBranch {
		metrics.WebhookEventsTotal.WithLabelValues("ignored_branch").Inc()
		h.logger.Debug().
			Str("ref", payload.Ref).
			Str("deploy_branch", h.config.Webhook.DeployBranch).
			Msg("Ignoring push to non-deploy branch")
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "not the deploy branch"})
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("accepted").Inc()
	h.logger.Info().
		Str("repository", payload.Repository.FullName).
		Str("commit", payload.After).
		Msg("Deploy push received, refreshing shop blocks")

	// The refresh fans out across shops; answer the webhook now and run
	// it detached from the request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		refreshed, err := h.installs.RefreshAllShops(ctx, "deploy_webhook")
		if err != nil {
			h.logger.Error().Err(err).Int("refreshed", refreshed).Msg("Deploy-triggered refresh finished with errors")
			return
		}
		h.logger.Info().Int("refreshed", refreshed).Msg("Deploy-triggered refresh complete")
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// verifySignature checks a GitHub-style "sha256=<hex>" HMAC signature.
func verifySignature(body []byte, signature, secret string) bool {
	expected := strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(expected))
}
