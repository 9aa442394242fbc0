package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 讓 errors.Is/As 可以穿透到原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Wrap 以相同代碼與狀態包裝底層錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ToResponse 轉為 API 錯誤響應，debug 模式下帶上原始錯誤
func ToResponse(err error, debug bool) (int, ErrorResponse) {
	var ce *CustomError
	if !errors.As(err, &ce) {
		ce = ErrInternalError
	}
	resp := ErrorResponse{Code: ce.Code, Message: ce.Message}
	if debug && err != nil {
		resp.Details = err.Error()
	}
	return ce.Status, resp
}

// IsPayloadTooLarge 讀取請求體時超過 MaxBytesReader 上限
func IsPayloadTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 估算流程
	ErrCodeNoRecipeFound          = "NO_RECIPE_FOUND"
	ErrCodeUnsupportedLanguage    = "UNSUPPORTED_LANGUAGE"
	ErrCodePageFetchFailed        = "PAGE_FETCH_FAILED"
	ErrCodeExtractionFailed       = "EXTRACTION_FAILED"
	ErrCodeTranslationFailed      = "TRANSLATION_FAILED"
	ErrCodeWeightEstimationFailed = "WEIGHT_ESTIMATION_FAILED"
	ErrCodeEmissionLookupFailed   = "EMISSION_LOOKUP_FAILED"
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrPayloadTooLarge = NewError(ErrCodePayloadTooLarge, "請求內容過大", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrCacheDisabled          = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
	ErrCacheMiss              = NewError("CACHE_MISS", "緩存未命中", http.StatusNotFound, nil)
	ErrAIServiceError         = NewError("AI_SERVICE_ERROR", "AI 服務錯誤", http.StatusServiceUnavailable, nil)
	ErrNoRecipeFound          = NewError(ErrCodeNoRecipeFound, "找不到食譜", http.StatusUnprocessableEntity, nil)
	ErrUnsupportedLanguage    = NewError(ErrCodeUnsupportedLanguage, "不支援的語言", http.StatusUnprocessableEntity, nil)
	ErrPageFetchFailed        = NewError(ErrCodePageFetchFailed, "無法讀取網頁內容", http.StatusBadGateway, nil)
	ErrExtractionFailed       = NewError(ErrCodeExtractionFailed, "食譜擷取失敗", http.StatusBadGateway, nil)
	ErrTranslationFailed      = NewError(ErrCodeTranslationFailed, "翻譯失敗", http.StatusBadGateway, nil)
	ErrWeightEstimationFailed = NewError(ErrCodeWeightEstimationFailed, "重量估算失敗", http.StatusBadGateway, nil)
	ErrEmissionLookupFailed   = NewError(ErrCodeEmissionLookupFailed, "排放係數查詢失敗", http.StatusBadGateway, nil)
)
