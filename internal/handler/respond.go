package handler

import (
	"encoding/json"
	"net/http"

	ewcommon "esw/internal/common"
	"esw/internal/model"
	"esw/internal/monitor"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

// writeOpState maps the terminal state of a mutating operation onto an HTTP
// response. Failures are reported with the text already prepared for display.
func writeOpState(w http.ResponseWriter, st monitor.OpState) {
	resp := model.OperateResponse{
		Status: st.Status.String(),
		TxID:   st.TxID,
		Error:  st.Err,
	}
	if st.Status == monitor.StatusFailed {
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseAmount converts a decimal amount string to encrypted-integer base units
func parseAmount(amount string) (uint64, error) {
	return ewcommon.StableToUnits(amount)
}
