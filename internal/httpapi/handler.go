package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinicq/queue-service/internal/models"
	"clinicq/queue-service/internal/store"
	"clinicq/queue-service/internal/views"
)

type Handler struct {
	store store.Store
}

type addQueueRequest struct {
	HN     string `json:"hn"`
	RoomID string `json:"room_id"`
}

type callQueueRequest struct {
	RoomID      string `json:"room_id"`
	QueueNumber int    `json:"queue_number"`
}

type moveQueueRequest struct {
	RoomID string `json:"room_id"`
}

type createPatientRequest struct {
	HN   string `json:"hn"`
	Name string `json:"name"`
}

type roomRequest struct {
	Name string `json:"name"`
}

type createDoctorRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	RoomID         string `json:"room_id"`
}

type assignDoctorRequest struct {
	RoomID *string `json:"room_id"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(store store.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/dashboard", h.handleDashboard)
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/api/patients", h.handlePatients)
	mux.HandleFunc("/api/patients/search", h.handlePatientSearch)
	mux.HandleFunc("/api/queue", h.handleAddQueue)
	mux.HandleFunc("/api/queue/actions/call", h.handleCallQueue)
	mux.HandleFunc("/api/queue/", h.handleQueueActions)
	mux.HandleFunc("/api/rooms", h.handleRooms)
	mux.HandleFunc("/api/rooms/", h.handleRoomByID)
	mux.HandleFunc("/api/doctors", h.handleDoctors)
	mux.HandleFunc("/api/doctors/", h.handleDoctorByID)
	mux.HandleFunc("/api/events", h.handleEvents)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := h.store.Snapshot(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := h.store.Snapshot(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, views.BuildStats(snapshot))
}

func (h *Handler) handlePatients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		patients, err := h.store.ListPatients(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, patients)
	case http.MethodPost:
		var req createPatientRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.HN = strings.TrimSpace(req.HN)
		req.Name = strings.TrimSpace(req.Name)
		if req.HN == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "hn and name are required")
			return
		}

		patient, err := h.store.CreatePatient(r.Context(), store.CreatePatientInput{
			HN:          req.HN,
			Name:        req.Name,
			ArrivalTime: time.Now().UTC(),
		})
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, patient)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePatientSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	patient, found, err := h.store.FindPatientByHN(r.Context(), code)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Handler) handleAddQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req addQueueRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.HN = strings.TrimSpace(req.HN)
	req.RoomID = strings.TrimSpace(req.RoomID)
	if req.HN == "" || req.RoomID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "hn and room_id are required")
		return
	}

	patient, err := h.store.AddQueue(r.Context(), store.AddQueueInput{
		HN:     req.HN,
		RoomID: req.RoomID,
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Handler) handleCallQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req callQueueRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.RoomID = strings.TrimSpace(req.RoomID)
	if req.RoomID == "" || req.QueueNumber <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "room_id and a positive queue_number are required")
		return
	}

	patient, err := h.store.CallQueue(r.Context(), store.CallQueueInput{
		RoomID:      req.RoomID,
		QueueNumber: req.QueueNumber,
		CalledAt:    time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Handler) handleQueueActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[1] != "actions" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	patientID := parts[0]

	switch parts[2] {
	case "move":
		var req moveQueueRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.RoomID = strings.TrimSpace(req.RoomID)
		if req.RoomID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "room_id is required")
			return
		}
		patient, err := h.store.MoveQueue(r.Context(), patientID, req.RoomID)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, patient)
	case "delete":
		patient, err := h.store.DeleteQueue(r.Context(), patientID)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, patient)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rooms, err := h.store.ListRooms(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, rooms)
	case http.MethodPost:
		var req roomRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}
		room, err := h.store.CreateRoom(r.Context(), req.Name)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, room)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleRoomByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) == 1 {
		roomID := parts[0]
		switch r.Method {
		case http.MethodPut:
			var req roomRequest
			if !decodeRequest(w, r, &req) {
				return
			}
			req.Name = strings.TrimSpace(req.Name)
			if req.Name == "" {
				writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
				return
			}
			room, err := h.store.RenameRoom(r.Context(), roomID, req.Name)
			if err != nil {
				status, code, msg := mapError(err)
				writeError(w, status, code, msg)
				return
			}
			writeJSON(w, http.StatusOK, room)
		case http.MethodDelete:
			if err := h.store.DeleteRoom(r.Context(), roomID); err != nil {
				status, code, msg := mapError(err)
				writeError(w, status, code, msg)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) != 3 || parts[1] != "actions" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	roomID := parts[0]

	var status string
	switch parts[2] {
	case "activate":
		status = models.RoomActive
	case "deactivate":
		status = models.RoomInactive
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	room, err := h.store.SetRoomStatus(r.Context(), roomID, status)
	if err != nil {
		httpStatus, code, msg := mapError(err)
		writeError(w, httpStatus, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handleDoctors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doctors, err := h.store.ListDoctors(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, doctors)
	case http.MethodPost:
		var req createDoctorRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Specialization = strings.TrimSpace(req.Specialization)
		req.RoomID = strings.TrimSpace(req.RoomID)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}
		doctor, err := h.store.CreateDoctor(r.Context(), store.CreateDoctorInput{
			Name:           req.Name,
			Specialization: req.Specialization,
			RoomID:         req.RoomID,
		})
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, doctor)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDoctorByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/doctors/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.store.RemoveDoctor(r.Context(), parts[0]); err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if len(parts) != 3 || parts[1] != "actions" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	doctorID := parts[0]

	switch parts[2] {
	case "assign":
		var req assignDoctorRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.RoomID != nil {
			trimmed := strings.TrimSpace(*req.RoomID)
			if trimmed == "" {
				writeError(w, http.StatusBadRequest, "invalid_request", "room_id must be a room id or null")
				return
			}
			req.RoomID = &trimmed
		}
		doctor, err := h.store.AssignDoctor(r.Context(), doctorID, req.RoomID)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, doctor)
	case "activate", "deactivate":
		doctor, err := h.store.SetDoctorActive(r.Context(), doctorID, parts[2] == "activate")
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, doctor)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	afterRaw := strings.TrimSpace(r.URL.Query().Get("after"))
	var after time.Time
	if afterRaw != "" {
		parsed, err := time.Parse(time.RFC3339, afterRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "after must be RFC3339 timestamp")
			return
		}
		after = parsed
	}

	limit := 100
	if limitRaw := strings.TrimSpace(r.URL.Query().Get("limit")); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.store.ListEvents(r.Context(), after, limit)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found", "room not found"
	case errors.Is(err, store.ErrDoctorNotFound):
		return http.StatusNotFound, "doctor_not_found", "doctor not found"
	case errors.Is(err, store.ErrPatientNotFound):
		return http.StatusNotFound, "patient_not_found", "patient not found"
	case errors.Is(err, store.ErrQueueNotFound):
		return http.StatusNotFound, "queue_not_found", "no patient holds that queue number in this room"
	case errors.Is(err, store.ErrRoomInactive):
		return http.StatusConflict, "room_inactive", "room is inactive"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "patient state does not allow this action"
	case errors.Is(err, store.ErrRoomStaffed):
		return http.StatusConflict, "room_staffed", "room already has an active doctor"
	case errors.Is(err, store.ErrRoomHasQueue):
		return http.StatusConflict, "room_has_queue", "room still has queued patients"
	case errors.Is(err, store.ErrDuplicateHN):
		return http.StatusConflict, "duplicate_hn", "hn already registered"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
