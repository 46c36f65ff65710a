package usuario

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler encapsula DB, repository e o emissor de tokens
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Auth       *auth.Service
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, authService *auth.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Auth:       authService,
		Log:        log,
	}
}

// Login valida email e senha e devolve access token + cookie de refresh
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.Repository.BuscarPorEmail(h.DB.WithContext(r.Context()), req.Email)
	if err != nil || !user.Ativo || !utils.VerificarSenha(user.Senha, req.Senha) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.Log.Error("login: erro ao buscar usuário", zap.Error(err))
		}
		http.Error(w, "Credenciais inválidas", http.StatusUnauthorized)
		return
	}

	tokens, err := h.Auth.IssueTokensOnLogin(w, user.ID, user.IsAdmin)
	if err != nil {
		h.Log.Error("login: erro ao emitir tokens", zap.Uint("usuario_id", user.ID), zap.Error(err))
		http.Error(w, "Erro ao gerar token", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, LoginResponse{TokenResponse: tokens, Usuario: user})
}

// Criar cadastra um usuário; o primeiro cadastro do sistema vira admin
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req criarUsuarioRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	req.Email = normalizarEmail(req.Email)
	if req.Nome == "" {
		http.Error(w, "Nome é obrigatório", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, "Email inválido", http.StatusBadRequest)
		return
	}

	hash, err := utils.HashSenha(req.Senha)
	if errors.Is(err, utils.ErrSenhaCurta) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao processar senha", http.StatusInternalServerError)
		return
	}

	u := Usuario{
		Nome:     req.Nome,
		Email:    req.Email,
		OAB:      strings.TrimSpace(req.OAB),
		Telefone: req.Telefone,
		Foto:     req.Foto,
		Senha:    hash,
		Ativo:    true,
	}
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		total, err := h.Repository.ContarTodos(tx)
		if err != nil {
			return err
		}
		u.IsAdmin = total == 0
		return h.Repository.Salvar(tx, &u)
	})
	if utils.IsUniqueViolation(err) {
		http.Error(w, "Email já cadastrado", http.StatusConflict)
		return
	}
	if err != nil {
		h.Log.Error("erro ao salvar usuário", zap.Error(err))
		http.Error(w, "Erro ao salvar usuário", http.StatusInternalServerError)
		return
	}
	if u.IsAdmin {
		h.Log.Info("primeiro usuário cadastrado como administrador", zap.Uint("usuario_id", u.ID))
	}
	utils.WriteJSON(w, http.StatusCreated, u)
}

// Me devolve o usuário autenticado
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), auth.UsuarioID(r.Context()))
	if err != nil {
		http.Error(w, "Usuário não encontrado", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

// Listar retorna todos os usuários (somente admin)
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	usuarios, err := h.Repository.ListarTodos(h.DB.WithContext(r.Context()))
	if err != nil {
		http.Error(w, "Erro ao listar usuários", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, usuarios)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return
	}
	u, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Usuário não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao buscar usuário", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

// Atualizar altera dados cadastrais; IsAdmin e Ativo só mudam por um admin
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if !auth.PodeAcessar(ctx, id) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return
	}

	var req atualizarUsuarioRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if (req.IsAdmin != nil || req.Ativo != nil) && !auth.IsAdmin(ctx) {
		http.Error(w, "Somente administradores alteram perfil e situação", http.StatusForbidden)
		return
	}

	db := h.DB.WithContext(ctx)
	u, err := h.Repository.BuscarPorID(db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Usuário não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao buscar usuário", http.StatusInternalServerError)
		return
	}

	if req.Nome != nil {
		if strings.TrimSpace(*req.Nome) == "" {
			http.Error(w, "Nome é obrigatório", http.StatusBadRequest)
			return
		}
		u.Nome = strings.TrimSpace(*req.Nome)
	}
	if req.Email != nil {
		email := normalizarEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			http.Error(w, "Email inválido", http.StatusBadRequest)
			return
		}
		u.Email = email
	}
	if req.OAB != nil {
		u.OAB = strings.TrimSpace(*req.OAB)
	}
	if req.Telefone != nil {
		u.Telefone = *req.Telefone
	}
	if req.Foto != nil {
		u.Foto = *req.Foto
	}
	perfilAntes, ativoAntes := u.IsAdmin, u.Ativo
	if req.IsAdmin != nil {
		u.IsAdmin = *req.IsAdmin
	}
	if req.Ativo != nil {
		u.Ativo = *req.Ativo
	}

	err = h.Repository.Atualizar(db, u)
	if utils.IsUniqueViolation(err) {
		http.Error(w, "Email já cadastrado", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao atualizar usuário", http.StatusInternalServerError)
		return
	}
	if u.IsAdmin != perfilAntes || u.Ativo != ativoAntes {
		h.revogarSessoes(r, u.ID)
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

// revogarSessoes derruba os refresh tokens; o access token em curso expira sozinho.
func (h *Handler) revogarSessoes(r *http.Request, id uint) {
	if h.Auth == nil {
		return
	}
	if err := h.Auth.RevogarSessoes(r.Context(), id); err != nil {
		h.Log.Error("erro ao revogar sessões", zap.Uint("usuario_id", id), zap.Error(err))
	}
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return
	}
	err := h.Repository.Deletar(h.DB.WithContext(r.Context()), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Usuário não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao remover usuário", http.StatusInternalServerError)
		return
	}
	h.revogarSessoes(r, id)
	w.WriteHeader(http.StatusNoContent)
}

// AlterarSenha exige a senha atual; vale apenas para o próprio usuário
func (h *Handler) AlterarSenha(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	if auth.UsuarioID(r.Context()) != id {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return
	}

	var req alterarSenhaRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	db := h.DB.WithContext(r.Context())
	u, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		http.Error(w, "Usuário não encontrado", http.StatusNotFound)
		return
	}
	if !utils.VerificarSenha(u.Senha, req.SenhaAtual) {
		http.Error(w, "Senha atual incorreta", http.StatusUnauthorized)
		return
	}
	hash, err := utils.HashSenha(req.NovaSenha)
	if errors.Is(err, utils.ErrSenhaCurta) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao processar senha", http.StatusInternalServerError)
		return
	}
	if err := db.Model(u).Update("senha", hash).Error; err != nil {
		http.Error(w, "Erro ao alterar senha", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
