package ledger

import "github.com/ACSKamloops/shs-engine-sub003/internal/models"

// sampleSuggestions is the fixed offline fallback set. Ids sit far above
// anything a live backend hands out so they never collide within a
// session.
func sampleSuggestions(docID int64) []models.Suggestion {
	return []models.Suggestion{
		{ID: 900001, DocID: docID, Title: "Kamloops", Lat: 50.6745, Lng: -120.3273, Confidence: models.ConfidenceHigh, Status: models.SuggestionPending},
		{ID: 900002, DocID: docID, Title: "Salmon Arm", Lat: 50.7001, Lng: -119.2838, Confidence: models.ConfidenceMedium, Status: models.SuggestionPending},
		{ID: 900003, DocID: docID, Title: "Merritt", Lat: 50.1113, Lng: -120.7862, Confidence: models.ConfidenceLow, Status: models.SuggestionPending},
	}
}
