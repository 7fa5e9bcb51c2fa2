package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tanpawarit/record-agent/record"
	"github.com/tanpawarit/record-agent/record/medicine"
	"github.com/tanpawarit/record-agent/record/student"
)

type createStudentRequest struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Grade string `json:"grade"`
}

func (h *handlers) listStudents(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.Students.List(r.Context())
	writeResult(w, r, items, student.MsgListed, err)
}

func (h *handlers) getStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Students.GetByName(r.Context(), r.PathValue("name"))
	writeResult(w, r, st, student.MsgFetched, err)
}

func (h *handlers) createStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeBody(r, &req); err != nil {
		writeResult(w, r, nil, "", err)
		return
	}
	id, err := h.deps.Students.Create(r.Context(), req.Name, req.Age, req.Grade)
	writeResult(w, r, map[string]string{"id": id}, student.MsgCreated, err)
}

func (h *handlers) updateStudent(w http.ResponseWriter, r *http.Request) {
	var patch student.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeResult(w, r, nil, "", err)
		return
	}
	name := r.PathValue("name")
	err := h.deps.Students.Update(r.Context(), name, patch)
	writeResult(w, r, map[string]string{"name": name}, student.MsgUpdated, err)
}

func (h *handlers) deleteStudent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := h.deps.Students.Delete(r.Context(), name)
	writeResult(w, r, map[string]string{"name": name}, student.MsgDeleted, err)
}

func (h *handlers) createMedicine(w http.ResponseWriter, r *http.Request) {
	var in medicine.Input
	if err := decodeBody(r, &in); err != nil {
		writeResult(w, r, nil, "", err)
		return
	}
	m, err := h.deps.Medicines.Create(r.Context(), in)
	writeResult(w, r, m, medicine.MsgCreated, err)
}

func (h *handlers) listMedicines(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.Medicines.List(r.Context())
	writeResult(w, r, items, medicine.MsgListed, err)
}

func (h *handlers) getMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Medicines.GetByName(r.Context(), r.PathValue("name"))
	writeResult(w, r, m, medicine.MsgFetched, err)
}

func (h *handlers) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := medicineID(r)
	if err != nil {
		writeResult(w, r, nil, "", err)
		return
	}
	var patch medicine.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeResult(w, r, nil, "", err)
		return
	}
	m, err := h.deps.Medicines.Update(r.Context(), id, patch)
	writeResult(w, r, m, medicine.MsgUpdated, err)
}

func (h *handlers) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := medicineID(r)
	if err != nil {
		writeResult(w, r, nil, "", err)
		return
	}
	items, err := h.deps.Medicines.Delete(r.Context(), id)
	writeResult(w, r, items, medicine.MsgDeleted, err)
}

func medicineID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: medicine id must be a positive integer, got %q", record.ErrInvalidInput, raw)
	}
	return id, nil
}
