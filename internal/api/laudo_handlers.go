package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/laudosaude/backend/internal/auth"
	"github.com/laudosaude/backend/internal/laudo"
	"github.com/laudosaude/backend/internal/service"
)

type CriarLaudoRequest struct {
	Conclusao string `json:"conclusao"`
}

// CriarLaudo cria a primeira versão do laudo do exame do path.
func (h *Handler) CriarLaudo(w http.ResponseWriter, r *http.Request) {
	exameID, ok := parseUUIDVar(mux.Vars(r), "exameId")
	if !ok {
		http.Error(w, `{"error":"exameId inválido"}`, http.StatusBadRequest)
		return
	}
	var req CriarLaudoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	a := auth.AuthorizationFrom(r.Context())
	view, err := h.Svc.CriarLaudo(r.Context(), a, service.CreateLaudoInput{
		ExameID:   exameID,
		Conclusao: strings.TrimSpace(req.Conclusao),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type listResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func (h *Handler) ListarLaudos(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthorizationFrom(r.Context())
	limit, offset := ParseLimitOffset(r)
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !laudo.Status(status).Valido() {
		http.Error(w, `{"error":"status inválido"}`, http.StatusBadRequest)
		return
	}
	views, total, err := h.Svc.ListarLaudos(r.Context(), a, status, limit, offset)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: views, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) BuscarLaudo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	view, err := h.Svc.BuscarLaudo(r.Context(), auth.AuthorizationFrom(r.Context()), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type RefazerLaudoRequest struct {
	Conclusao string `json:"conclusao"`
	Motivo    string `json:"motivo,omitempty"`
}

func (h *Handler) RefazerLaudo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	var req RefazerLaudoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	view, err := h.Svc.RefazerLaudo(r.Context(), auth.AuthorizationFrom(r.Context()), id, strings.TrimSpace(req.Conclusao), strings.TrimSpace(req.Motivo))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type AssinarLaudoRequest struct {
	// certificado | imagem_fisica | manual
	Metodo           string `json:"metodo"`
	SenhaCertificado string `json:"senha_certificado,omitempty"`
}

// AssinarLaudo resolve a união etiquetada do corpo e delega ao ponto de
// entrada único de assinatura. O caminho de upload tem endpoint próprio
// (multipart).
func (h *Handler) AssinarLaudo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	var req AssinarLaudoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	var metodo laudo.Metodo
	switch strings.ToLower(strings.TrimSpace(req.Metodo)) {
	case "certificado":
		metodo = laudo.MetodoCertificado{Senha: req.SenhaCertificado}
	case "imagem_fisica":
		metodo = laudo.MetodoImagemFisica{}
	case "manual":
		metodo = laudo.MetodoManual{}
	default:
		http.Error(w, `{"error":"metodo deve ser certificado, imagem_fisica ou manual"}`, http.StatusBadRequest)
		return
	}
	view, err := h.Svc.Assinar(r.Context(), auth.AuthorizationFrom(r.Context()), id, metodo)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

const maxUploadBytes = 20 << 20 // 20 MiB

// UploadAssinado recebe o PDF assinado fora do sistema (multipart, campo
// "arquivo") e converge no mesmo fluxo de assinatura.
func (h *Handler) UploadAssinado(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, `{"error":"multipart inválido ou arquivo grande demais"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("arquivo")
	if err != nil {
		http.Error(w, `{"error":"campo arquivo é obrigatório"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	view, err := h.Svc.Assinar(r.Context(), auth.AuthorizationFrom(r.Context()), id,
		laudo.MetodoUpload{Arquivo: raw, NomeArquivo: header.Filename})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type EnvioEmailRequest struct {
	Destinatario string `json:"destinatario"`
}

func (h *Handler) EnvioEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	var req EnvioEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if err := h.Svc.RegistrarEnvioEmail(r.Context(), auth.AuthorizationFrom(r.Context()), id, strings.TrimSpace(req.Destinatario)); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "enviado"})
}

type InvalidarLaudoRequest struct {
	Motivo string `json:"motivo"`
}

func (h *Handler) InvalidarLaudo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	var req InvalidarLaudoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if err := h.Svc.Invalidar(r.Context(), auth.AuthorizationFrom(r.Context()), id, strings.TrimSpace(req.Motivo)); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidado"})
}

func (h *Handler) HistoricoLaudo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	items, err := h.Svc.Historico(r.Context(), auth.AuthorizationFrom(r.Context()), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) LaudoPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDVar(mux.Vars(r), "laudoId")
	if !ok {
		http.Error(w, `{"error":"laudoId inválido"}`, http.StatusBadRequest)
		return
	}
	raw, nome, err := h.Svc.LaudoPDF(r.Context(), auth.AuthorizationFrom(r.Context()), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+nome+`"`)
	_, _ = w.Write(raw)
}

// VerificarLaudo é o endpoint público de autenticidade pelo token do QR.
func (h *Handler) VerificarLaudo(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	v, err := h.Svc.VerificarPorToken(r.Context(), token)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
