package bookapi

/* ========================================================================
 * BookAPI Types - 接口数据结构
 * ========================================================================
 * 职责: 定义后端各接口的请求/响应数据结构
 * 约定: 响应体都包在 Result 信封里，transport 层解信封后落到这里的类型；
 *       请求 DTO 带 validate/error_msg 标签，出站前本地校验
 * ======================================================================== */

// ========================================================================
// 认证
// ========================================================================

// LoginRequest 账号密码登录
type LoginRequest struct {
	Username string `json:"username" validate:"required" error_msg:"required:username is required"`
	Password string `json:"password" validate:"required,min=6" error_msg:"required:password is required|min:password too short"`
}

// LoginData 登录成功下发的令牌和用户信息
type LoginData struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo 用户画像
type UserInfo struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"` // 封面引用编码，见 imageref
	Role     string `json:"role,omitempty"`
}

// UpdateProfileRequest 资料编辑
type UpdateProfileRequest struct {
	Nickname string `json:"nickname,omitempty" validate:"omitempty,max=32" error_msg:"max:nickname too long"`
	Email    string `json:"email,omitempty" validate:"omitempty,email" error_msg:"email:invalid email"`
	Avatar   string `json:"avatar,omitempty"`
}

// ========================================================================
// 书籍分析
// ========================================================================

// BookAnalysis AI 生成的书籍分析
type BookAnalysis struct {
	ID             int64    `json:"id,string"`
	Title          string   `json:"title"`
	Genre          string   `json:"genre"`
	Themes         []string `json:"themes"`
	Tone           string   `json:"tone"`
	Poster         string   `json:"poster"` // 封面引用编码
	Recommendation string   `json:"recommendation"`
	AnalyzedAt     int64    `json:"analyzedAt"` // 毫秒时间戳
}

// ExtractRequest 从自由文本里抽取书名
type ExtractRequest struct {
	Text string `json:"text" validate:"required,max=2000" error_msg:"required:text is required|max:text too long"`
}

// ExtractData 抽取结果
type ExtractData struct {
	Titles []string `json:"titles"`
}

// InterestRequest 对一次分析的反馈
type InterestRequest struct {
	AnalysisID int64  `json:"analysisId,string" validate:"required" error_msg:"required:analysis id is required"`
	Liked      bool   `json:"liked"`
	Comment    string `json:"comment,omitempty" validate:"omitempty,max=500" error_msg:"max:comment too long"`
}

// FeedbackRecord 一条历史反馈
type FeedbackRecord struct {
	AnalysisID int64  `json:"analysisId,string"`
	Title      string `json:"title"`
	Liked      bool   `json:"liked"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
}

// Preference 聚合出的个人阅读偏好
type Preference struct {
	FavoriteGenres []string `json:"favoriteGenres"`
	FavoriteThemes []string `json:"favoriteThemes"`
	ToneProfile    string   `json:"toneProfile"`
	TotalFeedback  int      `json:"totalFeedback"`
	UpdatedAt      int64    `json:"updatedAt"`
}

// ========================================================================
// AI 模型
// ========================================================================

// AIModel 一个可用的 AI 模型配置
type AIModel struct {
	ID       int64  `json:"id,string"`
	Name     string `json:"name"`
	Type     string `json:"type"` // chat / image
	Provider string `json:"provider"`
	Endpoint string `json:"endpoint"`
	Active   bool   `json:"active"`
}

// SaveAIModelRequest 新建/更新模型配置
type SaveAIModelRequest struct {
	Name     string `json:"name" validate:"required" error_msg:"required:model name is required"`
	Type     string `json:"type" validate:"required,oneof=chat image" error_msg:"required:model type is required|oneof:type must be chat or image"`
	Provider string `json:"provider" validate:"required" error_msg:"required:provider is required"`
	Endpoint string `json:"endpoint" validate:"required,url" error_msg:"required:endpoint is required|url:endpoint must be a url"`
	APIKey   string `json:"apiKey,omitempty"`
}

// ========================================================================
// OAuth
// ========================================================================

// OAuthProvider 一个已启用的第三方登录提供方
type OAuthProvider struct {
	Type    string `json:"type"` // github / google / ...
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

// AuthorizeData 授权跳转信息
type AuthorizeData struct {
	AuthorizeURL string `json:"authorizeUrl"`
	State        string `json:"state"`
}

// Binding 当前账号的一条第三方绑定
type Binding struct {
	ProviderType string `json:"providerType"`
	ExternalID   string `json:"externalId"`
	BoundAt      int64  `json:"boundAt"`
}

// BindRequest 绑定第三方账号
type BindRequest struct {
	ProviderType string `json:"providerType" validate:"required" error_msg:"required:provider type is required"`
	Code         string `json:"code" validate:"required" error_msg:"required:code is required"`
	State        string `json:"state" validate:"required" error_msg:"required:state is required"`
}

// ========================================================================
// 管理端
// ========================================================================

// OAuthConfig 管理端的 OAuth 提供方配置
type OAuthConfig struct {
	ID           int64  `json:"id,string"`
	ProviderType string `json:"providerType"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	RedirectURI  string `json:"redirectUri"`
	Enabled      bool   `json:"enabled"`
}

// SaveOAuthConfigRequest 新建/更新 OAuth 配置
type SaveOAuthConfigRequest struct {
	ProviderType string `json:"providerType" validate:"required" error_msg:"required:provider type is required"`
	ClientID     string `json:"clientId" validate:"required" error_msg:"required:client id is required"`
	ClientSecret string `json:"clientSecret" validate:"required" error_msg:"required:client secret is required"`
	RedirectURI  string `json:"redirectUri" validate:"required,url" error_msg:"required:redirect uri is required|url:redirect uri must be a url"`
	Enabled      bool   `json:"enabled"`
}

// AdminUser 管理端的用户视图
type AdminUser struct {
	UserID    int64  `json:"userId,string"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Disabled  bool   `json:"disabled"`
	CreatedAt int64  `json:"createdAt"`
}

// AttackLog 一条攻击日志
type AttackLog struct {
	ID         int64  `json:"id,string"`
	IP         string `json:"ip"`
	Path       string `json:"path"`
	AttackType string `json:"attackType"` // sql_injection / xss / ...
	Payload    string `json:"payload,omitempty"`
	OccurredAt int64  `json:"occurredAt"`
}

// AttackStat 按类型聚合的攻击统计
type AttackStat struct {
	AttackType string `json:"attackType"`
	Count      int64  `json:"count"`
}
