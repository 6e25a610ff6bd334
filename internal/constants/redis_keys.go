package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"

	EntityFileDedupSet = "file_dedup_set"
	EntityTextDedupSet = "text_dedup_set"
	EntityRecord       = "record"

	// KeyFileMD5Set 原始文件MD5集合，上传去重 (SET)
	// 格式: app:resume:file_dedup_set
	KeyFileMD5Set = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityFileDedupSet

	// KeyTextMD5Set 抽取文本MD5集合，内容去重 (SET)
	// 格式: app:resume:text_dedup_set
	KeyTextMD5Set = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityTextDedupSet

	// KeyRecordCache 抽取结果缓存 (STRING, JSON)
	// 格式: app:resume:record:{textMD5}
	KeyRecordCache = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityRecord + ":%s"
)
