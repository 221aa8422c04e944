package handlers

import "net/http"

// voiceToolCatalog is the static function catalog the assistant platform
// pulls to learn which backend functions it may call.
var voiceToolCatalog = map[string]any{
	"tools": []any{
		map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        "create_booking",
				"description": "Creates a booking after collecting all customer information",
				"parameters": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"customer_name": map[string]any{
							"type":        "string",
							"description": "Customer's full name",
						},
						"customer_phone": map[string]any{
							"type":        "string",
							"description": "Phone number with country code (e.g., +46701234567)",
						},
						"activity": map[string]any{
							"type":        "string",
							"description": "Type of activity to book",
							"enum":        []string{"tennis", "padel", "gym"},
						},
						"booking_date": map[string]any{
							"type":        "string",
							"description": "Date in YYYY-MM-DD format",
						},
						"booking_time": map[string]any{
							"type":        "string",
							"description": "Start time in HH:MM format (24-hour)",
						},
					},
					"required": []string{
						"customer_name",
						"customer_phone",
						"activity",
						"booking_date",
						"booking_time",
					},
				},
			},
		},
		map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        "escalate_to_manager",
				"description": "Escalate complex questions to club manager",
				"parameters": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"customer_name": map[string]any{
							"type":        "string",
							"description": "Customer's name",
						},
						"customer_phone": map[string]any{
							"type":        "string",
							"description": "Customer's phone number",
						},
						"question": map[string]any{
							"type":        "string",
							"description": "The question that needs manager attention",
						},
					},
					"required": []string{"customer_name", "customer_phone", "question"},
				},
			},
		},
	},
}

// HandleTools serves GET /voice/tools.
func (h *VoiceWebhookHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voiceToolCatalog)
}
