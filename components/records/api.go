package records

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/record"
)

const maxBodyBytes = 64 << 10

type recordsResponse struct {
	Data  []record.Record `json:"data"`
	Count int             `json:"count"`
}

type createRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type validationResponse struct {
	Errors map[string]string `json:"errors"`
}

type notificationsResponse struct {
	Data []notify.Notification `json:"data"`
}

func (h *handler) listRecords(w http.ResponseWriter, r *http.Request) {
	if h.opts.Store == nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: errNotConfigured})
		return
	}
	records := h.opts.Store.Records()
	if records == nil {
		records = []record.Record{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{Data: records, Count: len(records)})
}

func (h *handler) createRecord(w http.ResponseWriter, r *http.Request) {
	if h.opts.Gate == nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: errNotConfigured})
		return
	}

	var body createRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.fail(w, r, StatusError{Code: http.StatusBadRequest, Err: err})
		return
	}

	res, err := h.opts.Gate.Submit(r.Context(), formgate.Values{
		formgate.FieldName:  body.Name,
		formgate.FieldEmail: body.Email,
		formgate.FieldPhone: body.Phone,
	})
	if err != nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: err})
		return
	}
	if !res.Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: res.Errors.Messages()})
		return
	}
	if res.Record == nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: errors.New("records: submission returned no record")})
		return
	}
	w.Header().Set("Location", h.base+"api/records")
	writeJSON(w, http.StatusCreated, res.Record)
}

func (h *handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.delete(r); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	items := []notify.Notification{}
	if h.opts.Notifications != nil {
		if active := h.opts.Notifications.Active(); active != nil {
			items = active
		}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Data: items})
}

func (h *handler) carouselState(w http.ResponseWriter, r *http.Request) {
	if h.opts.Carousel == nil {
		h.fail(w, r, StatusError{Code: http.StatusNotFound})
		return
	}
	writeJSON(w, http.StatusOK, h.opts.Carousel.State())
}

func (h *handler) openAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := OpenAPI(h.opts.Title, h.base)
	if err != nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: err})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
