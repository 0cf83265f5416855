// middleware/telegram.go
package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Identity is the trusted result of a verified Telegram initData payload.
type Identity struct {
	TelegramID int64  `json:"user_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	PhotoURL   string `json:"photo_url"`
	StartParam string `json:"start_param,omitempty"`
}

// parseInitDataPairs URL-decodes initData and splits it into key/value
// pairs, keeping only well-formed ones.
func parseInitDataPairs(initData string) (map[string]string, error) {
	decoded, err := url.PathUnescape(initData)
	if err != nil {
		return nil, err
	}
	params := make(map[string]string)
	for _, pair := range strings.Split(decoded, "&") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			params[k] = v
		}
	}
	return params, nil
}

// VerifyInitData reports whether initData carries a valid Telegram WebApp
// signature for botToken. The check string is every pair except "hash",
// sorted by key and joined with newlines; the HMAC key is
// HMAC-SHA256("WebAppData", botToken). Malformed input fails verification
// instead of erroring out.
func VerifyInitData(initData, botToken string) bool {
	if botToken == "" {
		log.Println("⚠️  [TG_AUTH] bot token is empty, rejecting init data")
		return false
	}

	params, err := parseInitDataPairs(initData)
	if err != nil {
		return false
	}
	received := params["hash"]
	if received == "" {
		return false
	}
	delete(params, "hash")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	calculated := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(calculated), []byte(received))
}

// ParseInitData extracts the identity from an already-verified payload.
// A missing or malformed user object, or one without a numeric id, is an
// error: a valid hash over garbage is still garbage.
func ParseInitData(initData string) (Identity, error) {
	params, err := parseInitDataPairs(initData)
	if err != nil {
		return Identity{}, fmt.Errorf("malformed init data: %w", err)
	}

	var user struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		PhotoURL  string `json:"photo_url"`
	}
	if raw, ok := params["user"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return Identity{}, fmt.Errorf("malformed user field: %w", err)
		}
	}
	if user.ID == 0 {
		return Identity{}, errors.New("init data has no user id")
	}

	return Identity{
		TelegramID: user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		PhotoURL:   user.PhotoURL,
		StartParam: params["start_param"],
	}, nil
}

// TelegramAuth validates the "tma <initData>" Authorization scheme used by
// the mini app and stashes the verified identity in locals.
func TelegramAuth() fiber.Handler {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("❌ BOT_TOKEN is not set — cannot verify Telegram init data")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		initData := strings.TrimPrefix(authHeader, "tma ")
		if authHeader == "" || initData == authHeader || initData == "" {
			log.Printf("🚫 [TG_AUTH] Missing or malformed Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid Authorization header, use 'tma <initData>'",
			})
		}

		if !VerifyInitData(initData, botToken) {
			log.Printf("❌ [TG_AUTH] Hash verification failed for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication failed",
			})
		}

		identity, err := ParseInitData(initData)
		if err != nil {
			log.Printf("❌ [TG_AUTH] %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid Telegram data",
			})
		}

		c.Locals("identity", identity)
		return c.Next()
	}
}
