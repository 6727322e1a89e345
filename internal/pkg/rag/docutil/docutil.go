// Package docutil 提供财报文档处理相关的工具函数：
// 从文件名提取元数据、清洗文本、查找数据目录下的文档。
package docutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	yearRe     = regexp.MustCompile(`(20\d{2})`)
	quarterRe  = regexp.MustCompile(`(?i)(Q[1-4])`)
	pageMarkRe = regexp.MustCompile(`Page \d+ of \d+`)
	spaceRe    = regexp.MustCompile(`\s+`)
	charRe     = regexp.MustCompile(`[^\w\s.,!?;:()\-$%@#]`)
)

// FileMetadata 是从文件名推断出的文档元数据。
// 文件名约定形如 "apple-inc_2023_Q4_earnings.txt"：
// 第一个下划线之前是公司名（连字符转空格），其余部分里找年份和季度。
type FileMetadata struct {
	Company string
	Year    int
	Quarter string
	Source  string
	DocType string
}

// ExtractMetadata 从文件路径推断元数据。
func ExtractMetadata(path string) FileMetadata {
	filename := filepath.Base(path)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	meta := FileMetadata{
		Source:  filename,
		DocType: "earnings_report",
	}

	if idx := strings.Index(stem, "_"); idx > 0 {
		meta.Company = titleCase(strings.ReplaceAll(stem[:idx], "-", " "))
	} else {
		meta.Company = titleCase(strings.ReplaceAll(stem, "-", " "))
	}

	if m := yearRe.FindString(stem); m != "" {
		year := 0
		for _, r := range m {
			year = year*10 + int(r-'0')
		}
		meta.Year = year
	}

	if m := quarterRe.FindString(stem); m != "" {
		meta.Quarter = strings.ToUpper(m)
	} else if strings.Contains(strings.ToLower(stem), "annual") {
		meta.Quarter = "Annual"
	}

	return meta
}

// titleCase 将每个空格分隔的词首字母大写。
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// CleanText 清洗提取出的文档文本：
// 折叠空白、去掉页码标记、移除正文以外的特殊字符。
func CleanText(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = pageMarkRe.ReplaceAllString(text, "")
	text = charRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// FindFiles 在目录中递归查找匹配指定扩展名的文件。
// extensions 是文件扩展名列表，如 []string{".txt", ".md"}。
func FindFiles(dir string, extensions []string) ([]string, error) {
	var files []string
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.ToLower(ext)] = true
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && extMap[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// EnsureDir 确保目录存在，如果不存在则创建。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// ReadFileContent 读取文件内容。
func ReadFileContent(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// DirExists 检查目录是否存在。
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
