package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrNotLoggedIn        ErrCode = "NOT_LOGGED_IN"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrRegistrationClosed ErrCode = "REGISTRATION_CLOSED"
	ErrNameRequired       ErrCode = "NAME_REQUIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrFeatureDisabled  ErrCode = "FEATURE_DISABLED"
	ErrIPMismatch       ErrCode = "IP_MISMATCH"
	ErrAdminAccessOnly  ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrInsufficientPool ErrCode = "INSUFFICIENT_POOL"
	ErrExamExpired      ErrCode = "EXAM_EXPIRED"
	ErrAlreadyAnswered  ErrCode = "ALREADY_ANSWERED"
	ErrExamOngoing      ErrCode = "EXAM_ONGOING"
	ErrEmptyBank        ErrCode = "EMPTY_BANK"

	// ─── Settings ──────────────────────────────────────────────────────
	ErrMisconfiguration ErrCode = "MISCONFIGURATION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Nama pengguna atau kata sandi salah."
	case ErrNotLoggedIn:
		return "Belum login. Silakan login terlebih dahulu."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrRegistrationClosed:
		return "Pendaftaran pengguna baru sedang ditutup."
	case ErrNameRequired:
		return "Nama diperlukan untuk pendaftaran pertama kali."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrPermissionDenied:
		return "Izin ditolak."
	case ErrFeatureDisabled:
		return "Fitur ini sedang dinonaktifkan."
	case ErrIPMismatch:
		return "Login dari jaringan lain terdeteksi dan dilarang! Coba lagi besok, atau hubungi administrator."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrInsufficientPool:
		return "Jumlah soal yang memenuhi syarat tidak mencukupi untuk memulai ujian."
	case ErrExamExpired:
		return "Waktu ujian telah berakhir."
	case ErrAlreadyAnswered:
		return "Soal ini sudah pernah dijawab."
	case ErrExamOngoing:
		return "Masih ada ujian yang sedang berlangsung."
	case ErrEmptyBank:
		return "Tidak ada soal yang tersedia."

	// ─── Settings ──────────────────────────────────────────────────────
	case ErrMisconfiguration:
		return "Konfigurasi tidak valid: ambang latihan tidak boleh lebih kecil dari jumlah soal ujian."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
