package i18n

var catalogs = map[string]map[string]string{
	LocalePT: messagesPT,
	LocaleEN: messagesEN,
	LocaleES: messagesES,
}

var messagesPT = map[string]string{
	"error.bad_request":               "Requisição inválida",
	"error.unauthorized":              "Não autenticado",
	"error.forbidden":                 "Sem permissão",
	"error.not_found":                 "Recurso não encontrado",
	"error.conflict":                  "Conflito com o estado atual",
	"error.upstream":                  "Serviço externo indisponível",
	"error.internal":                  "Erro interno, tente novamente",
	"error.too_many_requests":         "Muitas tentativas, aguarde alguns instantes",
	"error.funnel_name_required":      "Informe seu nome",
	"error.funnel_email_invalid":      "Informe um e-mail válido",
	"error.funnel_profile_invalid":    "Selecione um perfil de investidor",
	"error.funnel_already_submitted":  "Você já concluiu esta etapa",
	"error.funnel_session_not_found":  "Sessão expirada, recomece",
	"error.funnel_language_invalid":   "Idioma não suportado",
	"error.affiliate_code_required":   "Código de afiliado obrigatório",
	"error.affiliate_not_found":       "Afiliado não encontrado",
	"error.affiliate_not_eligible":    "É necessário um investimento confirmado de pelo menos R$ %s",
	"error.affiliate_exists":          "Você já é afiliado",
	"error.affiliate_status_invalid":  "Status de afiliado inválido",
	"error.plan_not_found":            "Plano inexistente",
	"error.amount_below_plan":         "Valor abaixo do mínimo do plano",
	"error.investment_not_found":      "Investimento não encontrado",
	"error.investment_status_invalid": "Status do investimento não permite esta operação",
	"error.investment_not_confirmed":  "Investimento ainda não confirmado",
	"error.commission_not_found":      "Comissão não encontrada",
	"error.commission_status_invalid": "Status da comissão não permite esta operação",
	"error.email_invalid":             "E-mail inválido",
	"error.email_exists":              "E-mail já cadastrado",
	"error.password_weak":             "Senha não atende à política de segurança",
	"error.invalid_credentials":       "E-mail ou senha incorretos",
	"error.identity_disabled":         "Conta desativada",
	"error.captcha_required":          "Captcha obrigatório",
	"error.captcha_invalid":           "Captcha incorreto",
	"error.pix_unavailable":           "Pagamento PIX indisponível no momento",
	"error.pix_signature_invalid":     "Assinatura do webhook inválida",
	"error.setting_invalid":           "Configuração inválida",

	"funnel.step.name.title":        "Como podemos te chamar?",
	"funnel.step.email.title":       "Para onde enviamos seus tokens?",
	"funnel.step.profile.title":     "Qual é o seu perfil de investidor?",
	"funnel.profile.beginner":       "Iniciante",
	"funnel.profile.intermediate":   "Intermediário",
	"funnel.profile.advanced":       "Avançado",
	"funnel.profile.distrustful":    "Ainda desconfiado",
	"funnel.reward.title":           "Parabéns! Você ganhou %d tokens AGD",
	"funnel.reward.cta":             "Escolher meu plano",
	"funnel.opt_out.title":          "Tudo bem, sem pressa",
	"funnel.opt_out.body":           "Vamos te enviar conteúdos para você conhecer o projeto com calma.",
	"funnel.progress.tokens":        "%d tokens acumulados",
	"checkout.pix.instructions":     "Copie o código PIX ou escaneie o QR code no app do seu banco",
	"checkout.pix.expires":          "O código expira em %d minutos",
	"affiliate.dashboard.title":     "Painel do afiliado",
	"affiliate.share.instructions":  "Compartilhe seu link e ganhe comissão em cada venda confirmada",
	"error.token_invalid":           "Token inválido ou expirado",
	"error.token_revoked":           "Sessão encerrada, faça login novamente",
	"error.auth_header_missing":     "Cabeçalho Authorization ausente",
	"error.auth_header_invalid":     "Cabeçalho Authorization inválido",
	"error.jwt_secret_missing":      "Autenticação não configurada",
	"error.dashboard_range_invalid": "Período do painel inválido",
	"error.password_min_length":     "A senha precisa ter pelo menos %d caracteres",
	"error.password_require_upper":  "A senha precisa de uma letra maiúscula",
	"error.password_require_lower":  "A senha precisa de uma letra minúscula",
	"error.password_require_number": "A senha precisa de um número",
	"error.password_contains_email": "A senha não pode conter o seu e-mail",
	"error.login_too_many":          "Muitas tentativas de login, aguarde %d segundos",
	"error.rate_limited":            "Muitas requisições, aguarde %d segundos",
	"error.rate_limit_unavailable":  "Limitador indisponível, tente novamente",
}
