// Package keywords 提取高频关键词并估算摘要对原文的关键词覆盖率。
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// wordRe 按 Unicode 单词字符切分，再只保留纯 ASCII 小写字母串
var (
	wordRe    = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)
	keywordRe = regexp.MustCompile(`^[a-z]{4,}$`)
)

var stopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "been": {}, "were": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "about": {}, "which": {}, "their": {},
	"there": {}, "these": {}, "those": {}, "when": {}, "where": {}, "what": {}, "said": {},
}

// Entry 关键词及出现次数
type Entry struct {
	Word  string
	Count int
}

// Signature 按频次降序排列的关键词，频次相同按首次出现顺序
type Signature []Entry

// Contains 判断关键词是否在签名中
func (s Signature) Contains(word string) bool {
	for _, e := range s {
		if e.Word == word {
			return true
		}
	}
	return false
}

// Words 返回有序关键词列表
func (s Signature) Words() []string {
	words := make([]string, len(s))
	for i, e := range s {
		words[i] = e.Word
	}
	return words
}

// Extract 提取 topN 个关键词：小写、长度 >= 4 的字母串、过滤停用词
func Extract(text string, topN int) Signature {
	if topN <= 0 {
		return Signature{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if !keywordRe.MatchString(w) {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sig := make(Signature, len(order))
	for i, w := range order {
		sig[i] = Entry{Word: w, Count: counts[w]}
	}
	sort.SliceStable(sig, func(i, j int) bool {
		return sig[i].Count > sig[j].Count
	})

	if len(sig) > topN {
		sig = sig[:topN]
	}
	return sig
}

// Coverage 原文 topN 关键词中出现在摘要 topN 关键词里的比例
// 原文没有合格关键词时视为完全覆盖
func Coverage(original Signature, summary Signature) float64 {
	if len(original) == 0 {
		return 1.0
	}

	covered := 0
	for _, e := range original {
		if summary.Contains(e.Word) {
			covered++
		}
	}
	return float64(covered) / float64(len(original))
}
