package matching

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/jinzhu/inflection"
	"golang.org/x/text/unicode/norm"
)

// SuggestionThreshold 模糊建議的最低相似度
const SuggestionThreshold = 0.8

var (
	// 開頭的數量與廚房單位，例如 "2 cups"、"1/2 tbsp"、"3 x"
	quantityPrefix = regexp.MustCompile(`^(?:\d+\s+\d+/\d+|\d+(?:[./]\d+)?|\d*[½¼¾⅓⅔])\s*` +
		`(?:x\s+|(?:cups?|c|tbsps?|tbs|tablespoons?|tsps?|teaspoons?|g|grams?|kg|kilograms?|mg|ml|` +
		`millilit(?:er|re)s?|l|lit(?:er|re)s?|oz|ounces?|lbs?|pounds?|pinch(?:es)?|dash(?:es)?|` +
		`cloves?|slices?|pieces?|pcs|cans?|bunch(?:es)?|handfuls?|sticks?)\.?\s+)?(?:of\s+)?`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	zeroWidth     = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "", "\u2060", "")
)

// Clean 將原始輸入清理為查表用的鍵
func Clean(raw string) string {
	s := norm.NFKC.String(raw)
	s = zeroWidth.Replace(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u2044", "/")
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimFunc(s, isEdgePunct)
	s = quantityPrefix.ReplaceAllString(s, "")
	s = strings.TrimFunc(s, isEdgePunct)
	return s
}

func isEdgePunct(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeResult 正規化結果
type NormalizeResult struct {
	Canonical   []string          `json:"canonical"`
	Unknown     []string          `json:"unknown"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
}

// Normalizer 食材正規化器，查表於建立時產生一次
type Normalizer struct {
	table map[string]string
	keys  []string
}

// NewNormalizer 由食材清單建立正規化器
func NewNormalizer(ingredients []Ingredient) *Normalizer {
	sorted := make([]Ingredient, len(ingredients))
	copy(sorted, ingredients)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	n := &Normalizer{table: make(map[string]string, len(sorted)*3)}

	// 標準 ID 優先，確保正規化具冪等性
	for _, ing := range sorted {
		n.register(ing.ID, ing.ID)
		n.register(strings.ReplaceAll(ing.ID, "_", " "), ing.ID)
	}
	for _, ing := range sorted {
		n.register(ing.Name, ing.ID)
	}
	for _, ing := range sorted {
		for _, syn := range ing.Synonyms {
			n.register(syn, ing.ID)
		}
	}

	n.keys = make([]string, 0, len(n.table))
	for k := range n.table {
		n.keys = append(n.keys, k)
	}
	sort.Strings(n.keys)
	return n
}

func (n *Normalizer) register(term, id string) {
	if id == "" {
		return
	}
	if term != id {
		term = Clean(term)
	}
	if term == "" {
		return
	}
	if _, exists := n.table[term]; !exists {
		n.table[term] = id
	}
}

// Lookup 依序嘗試完全比對、單數、複數
func (n *Normalizer) Lookup(term string) (string, bool) {
	if id, ok := n.table[term]; ok {
		return id, true
	}
	if id, ok := n.table[inflection.Singular(term)]; ok {
		return id, true
	}
	if id, ok := n.table[inflection.Plural(term)]; ok {
		return id, true
	}
	return "", false
}

// Resolve 將單一原始輸入解析為標準 ID
func (n *Normalizer) Resolve(raw string) (string, bool) {
	if id, ok := n.table[raw]; ok {
		return id, true
	}
	term := Clean(raw)
	if term == "" {
		return "", false
	}
	return n.Lookup(term)
}

// Normalize 將原始食材字串轉為標準 ID。無法辨識者以使用者原字（去除前後空白）放入 Unknown，
// 清理後為空的非空白輸入（例如 "!!!"）同樣列入 Unknown；純空白輸入略過
func (n *Normalizer) Normalize(raw []string) NormalizeResult {
	canonical := make(map[string]struct{})
	// 以清理後的鍵去重，保留第一次出現的原字
	unknown := make(map[string]string)
	cleaned := make(map[string]string)

	for _, r := range raw {
		// 已是標準 ID 時直接採用
		if id, ok := n.table[r]; ok && id == r {
			canonical[id] = struct{}{}
			continue
		}
		display := strings.TrimSpace(zeroWidth.Replace(r))
		if display == "" {
			continue
		}
		term := Clean(r)
		if term != "" {
			if id, ok := n.Lookup(term); ok {
				canonical[id] = struct{}{}
				continue
			}
		}
		key := term
		if key == "" {
			key = display
		}
		if _, seen := unknown[key]; !seen {
			unknown[key] = display
			cleaned[display] = term
		}
	}

	displays := make(map[string]struct{}, len(unknown))
	for _, d := range unknown {
		displays[d] = struct{}{}
	}
	result := NormalizeResult{
		Canonical: sortedKeys(canonical),
		Unknown:   sortedKeys(displays),
	}
	for _, display := range result.Unknown {
		term := cleaned[display]
		if term == "" {
			continue
		}
		if id, ok := n.suggest(term); ok {
			if result.Suggestions == nil {
				result.Suggestions = make(map[string]string)
			}
			result.Suggestions[display] = id
		}
	}
	return result
}

// suggest 找出相似度最高的已知名稱，僅供提示
func (n *Normalizer) suggest(term string) (string, bool) {
	best, bestKey := 0.0, ""
	termLen := len([]rune(term))
	for _, key := range n.keys {
		keyLen := len([]rune(key))
		maxLen := max(termLen, keyLen)
		if maxLen == 0 {
			continue
		}
		// 長度差過大不可能達到門檻
		if float64(abs(termLen-keyLen))/float64(maxLen) > 1-SuggestionThreshold+1e-9 {
			continue
		}
		sim := 1 - float64(levenshtein.ComputeDistance(term, key))/float64(maxLen)
		if sim > best {
			best, bestKey = sim, key
		}
	}
	if bestKey == "" || best < SuggestionThreshold {
		return "", false
	}
	return n.table[bestKey], true
}

// Size 查表中的鍵數量
func (n *Normalizer) Size() int {
	return len(n.table)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
