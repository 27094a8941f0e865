package handlers

const (
	ErrInvalidFormData     = "Datos de formulario inválidos"
	ErrInternalServerError = "Error interno del servidor"
	ErrTooManyAttempts     = "Demasiados intentos. Espera un minuto e intenta nuevamente."
	ErrInvalidCSRF         = "La sesión del formulario expiró. Recarga la página e intenta nuevamente."

	MsgHomeLoadFailed      = "No se pudieron cargar los datos. Por favor, intenta más tarde."
	MsgLoginUnexpected     = "Ocurrió un error inesperado. Por favor, intenta nuevamente."
	MsgTopicsLoadFailed    = "No se pudieron cargar los temas. Por favor, intenta más tarde."
	MsgTopicLoadFailed     = "No se pudieron cargar los datos del tema."
	MsgTopicNotFound       = "Tema no encontrado"
	MsgTopicLocked         = "Este tema aún está bloqueado. Completa el tema anterior para desbloquearlo."
	MsgNoChallenges        = "No hay retos disponibles para este tema."
	MsgChallengeLocked     = "Debes completar el reto anterior para desbloquear este."
	MsgChallengeCompleted  = "Ya completaste este reto."
	MsgStartFailed         = "Error al iniciar el reto. Por favor, intenta nuevamente."
	MsgStartPending        = "Ya se está iniciando un reto. Espera un momento."
	MsgChallengeNotFound   = "Reto no encontrado"
	MsgChallengeNotStarted = "Inicia el reto desde la lista de retos del tema para poder responderlo."
	MsgChallengeLoadFailed = "No se pudo cargar el reto."
	MsgSelectAnswer        = "Por favor selecciona una respuesta."
	MsgAnswerFailed        = "Error al enviar la respuesta."
	MsgWrongAnswer         = "Respuesta incorrecta. Intenta nuevamente."
	MsgNoProfile           = "Tu cuenta no tiene un perfil asociado."
	MsgPhotoInvalid        = "La foto de perfil debe ser una imagen JPG, PNG, GIF o WEBP."
	MsgAdminLoadFailed     = "No se pudieron cargar los datos de administración."
	MsgAdminSaveFailed     = "No se pudieron guardar los cambios."
	MsgAdminDeleteFailed   = "No se pudo eliminar el registro."
	MsgAdminSaved          = "Cambios guardados."
	MsgAdminDeleted        = "Registro eliminado."
	MsgInvalidCoins        = "Ingresa un número entero de monedas (0 o más)."
)
