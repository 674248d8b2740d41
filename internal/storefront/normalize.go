package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"

	"petshop_storefront/internal/models"
)

// normalizeOrder ramène les différentes formes de réponse de l'API
// ({order: {...}}, {data: {...}} ou la commande à la racine) à une seule.
func normalizeOrder(body []byte) (*models.CreatedOrder, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || isFalsy(body) {
		return nil, ErrEmptyResponse
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("réponse commande illisible: %w", err)
	}
	if len(root) == 0 {
		return nil, ErrEmptyResponse
	}

	obj := root
	for _, key := range []string{"order", "data"} {
		raw, ok := root[key]
		if !ok || isFalsy(raw) {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
			obj = nested
			break
		}
	}

	order := &models.CreatedOrder{
		ID:     firstString(obj, "_id", "id", "orderId", "orderNumber"),
		Status: firstString(obj, "status", "orderStatus"),
	}
	return order, nil
}

func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var id models.ID
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			return id.String()
		}
	}
	return ""
}

func isFalsy(raw []byte) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", `""`, "0", "{}", "[]":
		return true
	}
	return false
}
