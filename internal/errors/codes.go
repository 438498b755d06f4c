package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 이메일/비밀번호
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // 토큰 만료
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 잘못된 토큰
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // 토큰 폐기됨
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // 이메일 중복

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // 접근 권한 없음
	AuthzAccessDenied = "AUTHZ_ACCESS_DENIED" // 작업 권한 없음
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"    // 관리자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 잘못된 입력
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // 잘못된 ID
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 잘못된 형식
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // 범위 초과
	ValidationRequired      = "VALIDATION_REQUIRED"       // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 브랜드/매장 (BRAND_/STORE_) ====================
	BrandNotFound = "BRAND_NOT_FOUND" // 브랜드 없음
	StoreNotFound = "STORE_NOT_FOUND" // 매장 없음
	StoreInactive = "STORE_INACTIVE"  // 운영 중이 아닌 매장

	// ==================== 명부 (ROSTER_) ====================
	RosterEntryNotFound = "ROSTER_ENTRY_NOT_FOUND" // 명부 항목 없음
	RosterEntryExists   = "ROSTER_ENTRY_EXISTS"    // 이미 등록된 스태프
	RosterImportFailed  = "ROSTER_IMPORT_FAILED"   // 명부 파일 가져오기 실패

	// ==================== 인증 요청 (VERIFICATION_) ====================
	VerificationNotFound       = "VERIFICATION_NOT_FOUND"        // 인증 요청 없음
	VerificationAlreadyDecided = "VERIFICATION_ALREADY_DECIDED"  // 이미 종결된 요청
	VerificationInvalidReason  = "VERIFICATION_INVALID_REASON"   // 잘못된 반려 사유 코드
	VerificationAlreadyPending = "VERIFICATION_ALREADY_PENDING"  // 심사 중인 요청 존재
	VerificationScoringFailed  = "VERIFICATION_SCORING_FAILED"   // 자동 채점 실패

	// ==================== 알림 (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND" // 알림 없음

	// ==================== 업로드 (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // 잘못된 파일 형식
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // 파일 너무 큼
	UploadFailed          = "UPLOAD_FAILED"            // 업로드 실패

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // 설정 오류
)
