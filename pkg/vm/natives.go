// This file implements the stdlib's native surface: the library functions
// and types package compiler's code generation assumes exist in every
// loaded Module (Array's indexer) plus the teacher's original HTTP/crypto/
// compression/file/JSON/regex/date/random primitives, adapted from
// standalone VM methods into opcode.NativeFunc entries on a System type a
// host registers alongside Array.
package vm

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/mathx"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// arrayStorageSlot is the single instanceFields key an Array instance keeps
// its backing Go slice under. An Array has no declared Fields of its own
// (types.BoundType.Finalize would otherwise assign it real byte offsets);
// the native Get/Set pair below is the only code that ever touches this
// slot, so the key only needs to be stable, not meaningful.
const arrayStorageSlot = 0

// NewArrayType builds the native "Array" BoundType compileArrayLiteral and
// rewriteIndexers' Get/Set/GetSet sends target. Backed by a Go []any kept
// in the VM's instance field-storage side table rather than a fixed-width
// payload, since an array's length is unbounded at compile time.
func NewArrayType() *types.BoundType {
	bt := types.NewBoundType("Array", types.ByReference)
	bt.AddFunction(&types.Function{Name: "Get", Native: nativeArrayGet})
	bt.AddFunction(&types.Function{Name: "Set", Native: nativeArraySet})
	bt.AddFunction(&types.Function{Name: "GetSet", Native: nativeArrayGetSet})
	bt.AddFunction(&types.Function{Name: "Length", Native: nativeArrayLength})
	bt.AddFunction(&types.Function{Name: "Append", Native: nativeArrayAppend})
	return bt
}

func arraySlice(state any, receiver handle.Handle) ([]any, *ExecutableState, error) {
	es, ok := state.(*ExecutableState)
	if !ok {
		return nil, nil, fmt.Errorf("vm: Array natives require an *ExecutableState")
	}
	fields, err := es.fieldStorage(receiver)
	if err != nil {
		return nil, es, err
	}
	elems, _ := fields[arrayStorageSlot].([]any)
	return elems, es, nil
}

func nativeArrayGet(state any, args []any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("vm: Array.Get needs (index)")
	}
	recv, _ := args[0].(handle.Handle)
	idx, _ := args[1].(int64)
	elems, _, err := arraySlice(state, recv)
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= len(elems) {
		return nil, fmt.Errorf("vm: array index %d out of range (length %d)", idx, len(elems))
	}
	return elems[idx], nil
}

func nativeArraySet(state any, args []any) (any, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("vm: Array.Set needs (index, value)")
	}
	recv, _ := args[0].(handle.Handle)
	idx, _ := args[1].(int64)
	value := args[2]
	elems, es, err := arraySlice(state, recv)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("vm: negative array index %d", idx)
	}
	for int64(len(elems)) <= idx {
		elems = append(elems, nil)
	}
	elems[idx] = value
	fields, err := es.fieldStorage(recv)
	if err != nil {
		return nil, err
	}
	fields[arrayStorageSlot] = elems
	return nil, nil
}

// nativeArrayGetSet implements the compound read-modify-write the
// rewriteIndexers pass synthesizes for `arr[i] += v`-shaped expressions:
// args are (index, delta-or-replacement), and the existing element is
// returned so the caller can fold it with the compiler-emitted binary op
// before writing back through Set -- GetSet itself never mutates.
func nativeArrayGetSet(state any, args []any) (any, error) {
	return nativeArrayGet(state, args)
}

func nativeArrayLength(state any, args []any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("vm: Array.Length needs a receiver")
	}
	recv, _ := args[0].(handle.Handle)
	elems, _, err := arraySlice(state, recv)
	if err != nil {
		return nil, err
	}
	return int64(len(elems)), nil
}

func nativeArrayAppend(state any, args []any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("vm: Array.Append needs (value)")
	}
	recv, _ := args[0].(handle.Handle)
	elems, es, err := arraySlice(state, recv)
	if err != nil {
		return nil, err
	}
	elems = append(elems, args[1])
	fields, err := es.fieldStorage(recv)
	if err != nil {
		return nil, err
	}
	fields[arrayStorageSlot] = elems
	return nil, nil
}

// NewSystemType builds the native "System" BoundType: a home for the
// teacher's original VM primitives (HTTP, crypto, compression, file I/O,
// JSON, regex, date/time, random), ported from fixed-signature *VM methods
// to the opcode.NativeFunc shape. The receiver carries no state of its own
// (these were free functions in the teacher, hung off the VM struct only
// because Go methods needed a receiver); System exists purely so the
// Language's call convention -- every send has a receiver -- has somewhere
// to land.
func NewSystemType() *types.BoundType {
	bt := types.NewBoundType("System", types.ByReference)
	// args[0] is always the (unused) receiver System instance; args[1:]
	// are the call's real parameters, per invoke's "prepend receiver for
	// an Owner'd native" convention.
	register := func(name string, fn opcode.NativeFunc) {
		bt.AddFunction(&types.Function{Name: name, Native: fn})
	}

	register("HttpGet", func(_ any, a []any) (any, error) {
		return sysHTTPGet(argStr(a, 1))
	})
	register("HttpPost", func(_ any, a []any) (any, error) {
		return sysHTTPPost(argStr(a, 1), argStr(a, 2))
	})
	register("AesEncrypt", func(_ any, a []any) (any, error) {
		return sysAESEncrypt(argStr(a, 1), argStr(a, 2))
	})
	register("AesDecrypt", func(_ any, a []any) (any, error) {
		return sysAESDecrypt(argStr(a, 1), argStr(a, 2))
	})
	register("AesGenerateKey", func(_ any, a []any) (any, error) {
		return sysAESGenerateKey()
	})
	register("Sha256", func(_ any, a []any) (any, error) {
		return sysSHA256(argStr(a, 1)), nil
	})
	register("Sha512", func(_ any, a []any) (any, error) {
		return sysSHA512(argStr(a, 1)), nil
	})
	register("Md5", func(_ any, a []any) (any, error) {
		return sysMD5(argStr(a, 1)), nil
	})
	register("Base64Encode", func(_ any, a []any) (any, error) {
		return sysBase64Encode(argStr(a, 1)), nil
	})
	register("Base64Decode", func(_ any, a []any) (any, error) {
		return sysBase64Decode(argStr(a, 1))
	})
	register("ZipCompress", func(_ any, a []any) (any, error) {
		return sysZipCompress(argStr(a, 1))
	})
	register("ZipDecompress", func(_ any, a []any) (any, error) {
		return sysZipDecompress(argStr(a, 1))
	})
	register("GzipCompress", func(_ any, a []any) (any, error) {
		return sysGzipCompress(argStr(a, 1))
	})
	register("GzipDecompress", func(_ any, a []any) (any, error) {
		return sysGzipDecompress(argStr(a, 1))
	})
	register("FileRead", func(_ any, a []any) (any, error) {
		return sysFileRead(argStr(a, 1))
	})
	register("FileWrite", func(_ any, a []any) (any, error) {
		return nil, sysFileWrite(argStr(a, 1), argStr(a, 2))
	})
	register("FileExists", func(_ any, a []any) (any, error) {
		return sysFileExists(argStr(a, 1)), nil
	})
	register("FileDelete", func(_ any, a []any) (any, error) {
		return nil, sysFileDelete(argStr(a, 1))
	})
	register("JsonParse", func(_ any, a []any) (any, error) {
		return sysJSONParse(argStr(a, 1))
	})
	register("JsonGenerate", func(_ any, a []any) (any, error) {
		return sysJSONGenerate(argAny(a, 1))
	})
	register("RegexMatch", func(_ any, a []any) (any, error) {
		return sysRegexMatch(argStr(a, 1), argStr(a, 2))
	})
	register("RegexFindAll", func(_ any, a []any) (any, error) {
		return sysRegexFindAll(argStr(a, 1), argStr(a, 2))
	})
	register("RegexReplace", func(_ any, a []any) (any, error) {
		return sysRegexReplace(argStr(a, 1), argStr(a, 2), argStr(a, 3))
	})
	register("RandomInt", func(_ any, a []any) (any, error) {
		return sysRandomInt(argInt(a, 1), argInt(a, 2))
	})
	register("RandomFloat", func(_ any, a []any) (any, error) {
		return sysRandomFloat()
	})
	register("RandomBytes", func(_ any, a []any) (any, error) {
		return sysRandomBytes(argInt(a, 1))
	})
	register("DateNow", func(_ any, a []any) (any, error) {
		return sysDateNow(), nil
	})
	register("DateFormat", func(_ any, a []any) (any, error) {
		return sysDateFormat(argInt(a, 1), argStr(a, 2)), nil
	})
	register("DateParse", func(_ any, a []any) (any, error) {
		return sysDateParse(argStr(a, 1), argStr(a, 2))
	})
	register("TimeYear", func(_ any, a []any) (any, error) {
		return sysTimeYear(argInt(a, 1)), nil
	})
	register("TimeMonth", func(_ any, a []any) (any, error) {
		return sysTimeMonth(argInt(a, 1)), nil
	})
	register("TimeDay", func(_ any, a []any) (any, error) {
		return sysTimeDay(argInt(a, 1)), nil
	})
	register("TimeHour", func(_ any, a []any) (any, error) {
		return sysTimeHour(argInt(a, 1)), nil
	})
	register("TimeMinute", func(_ any, a []any) (any, error) {
		return sysTimeMinute(argInt(a, 1)), nil
	})
	register("TimeSecond", func(_ any, a []any) (any, error) {
		return sysTimeSecond(argInt(a, 1)), nil
	})
	return bt
}

// NewVectorType builds the native "Vector3" BoundType, backing the
// Language's built-in Real3 arithmetic with pkg/mathx.Vector3 rather than
// reimplementing dot/cross/normalize inline. Add, Sub, Dot and Cross take
// two 3-component vectors flattened across args[1:7] (x0,y0,z0,x1,y1,z1);
// Scale takes one vector in args[1:4] and a scalar in args[4]; Length and
// Normalize take one vector in args[1:4]. Each returns either a flattened
// 3-component result or a scalar float64.
func NewVectorType() *types.BoundType {
	bt := types.NewBoundType("Vector3", types.ByValue)
	register := func(name string, fn opcode.NativeFunc) {
		bt.AddFunction(&types.Function{Name: name, Native: fn})
	}

	register("Add", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Add(argVec3(a, 4)).Components(), nil
	})
	register("Sub", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Sub(argVec3(a, 4)).Components(), nil
	})
	register("Dot", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Dot(argVec3(a, 4)), nil
	})
	register("Cross", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Cross(argVec3(a, 4)).Components(), nil
	})
	register("Scale", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Scale(argFloat(a, 4)).Components(), nil
	})
	register("Length", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Length(), nil
	})
	register("Normalize", func(_ any, a []any) (any, error) {
		return argVec3(a, 1).Normalize().Components(), nil
	})
	return bt
}

func argFloat(a []any, i int) float64 {
	if i >= len(a) {
		return 0
	}
	f, _ := a[i].(float64)
	return f
}

func argVec3(a []any, i int) mathx.Vector3 {
	return mathx.NewVector3([]float64{argFloat(a, i), argFloat(a, i+1), argFloat(a, i+2)})
}

func argStr(a []any, i int) string {
	if i >= len(a) {
		return ""
	}
	s, _ := a[i].(string)
	return s
}

func argInt(a []any, i int) int64 {
	if i >= len(a) {
		return 0
	}
	n, _ := a[i].(int64)
	return n
}

func argAny(a []any, i int) any {
	if i >= len(a) {
		return nil
	}
	return a[i]
}

// NewStdlib assembles the native types above into one Library a host adds
// as a dependency before types.BuildModule, making Array and System
// available to every compiled Library that depends on it.
func NewStdlib() *types.Library {
	lib := types.NewLibrary("stdlib")
	_ = lib.AddType(NewArrayType())
	_ = lib.AddType(NewSystemType())
	_ = lib.AddType(NewVectorType())
	return lib
}

// --- System primitive bodies, ported from the teacher's primitives.go ---

func sysHTTPGet(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("HTTP GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}
	return string(body), nil
}

func sysHTTPPost(url, body string) (string, error) {
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTP POST failed: %v", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}
	return string(respBody), nil
}

func sysAESEncrypt(data, key string) (string, error) {
	keyBytes := []byte(key)
	if len(keyBytes) != 32 {
		return "", fmt.Errorf("AES key must be 32 bytes, got %d", len(keyBytes))
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %v", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %v", err)
	}
	plaintext := []byte(data)
	padding := aes.BlockSize - (len(plaintext) % aes.BlockSize)
	paddedData := make([]byte, len(plaintext)+padding)
	copy(paddedData, plaintext)
	for i := len(plaintext); i < len(paddedData); i++ {
		paddedData[i] = byte(padding)
	}
	ciphertext := make([]byte, len(paddedData))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, paddedData)
	result := append(iv, ciphertext...)
	return base64.StdEncoding.EncodeToString(result), nil
}

func sysAESDecrypt(data, key string) (string, error) {
	keyBytes := []byte(key)
	if len(keyBytes) != 32 {
		return "", fmt.Errorf("AES key must be 32 bytes, got %d", len(keyBytes))
	}
	encrypted, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %v", err)
	}
	if len(encrypted) < aes.BlockSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %v", err)
	}
	iv := encrypted[:aes.BlockSize]
	ciphertext := encrypted[aes.BlockSize:]
	mode := cipher.NewCBCDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertext))
	mode.CryptBlocks(plaintext, ciphertext)
	padding := int(plaintext[len(plaintext)-1])
	if padding > len(plaintext) || padding > aes.BlockSize {
		return "", fmt.Errorf("invalid padding")
	}
	return string(plaintext[:len(plaintext)-padding]), nil
}

func sysAESGenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func sysSHA256(data string) string {
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}

func sysSHA512(data string) string {
	h := sha512.Sum512([]byte(data))
	return fmt.Sprintf("%x", h)
}

func sysMD5(data string) string {
	h := md5.Sum([]byte(data))
	return fmt.Sprintf("%x", h)
}

func sysBase64Encode(data string) string {
	return base64.StdEncoding.EncodeToString([]byte(data))
}

func sysBase64Decode(data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %v", err)
	}
	return string(decoded), nil
}

func sysZipCompress(data string) (string, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("data")
	if err != nil {
		return "", fmt.Errorf("failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(data)); err != nil {
		return "", fmt.Errorf("failed to write to zip: %v", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close zip: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func sysZipDecompress(data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %v", err)
	}
	r, err := zip.NewReader(bytes.NewReader(decoded), int64(len(decoded)))
	if err != nil {
		return "", fmt.Errorf("failed to open zip: %v", err)
	}
	if len(r.File) == 0 {
		return "", fmt.Errorf("zip archive is empty")
	}
	f, err := r.File[0].Open()
	if err != nil {
		return "", fmt.Errorf("failed to open zip entry: %v", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read zip entry: %v", err)
	}
	return string(content), nil
}

func sysGzipCompress(data string) (string, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(data)); err != nil {
		return "", fmt.Errorf("failed to write to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close gzip: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func sysGzipDecompress(data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %v", err)
	}
	r, err := gzip.NewReader(bytes.NewReader(decoded))
	if err != nil {
		return "", fmt.Errorf("failed to open gzip: %v", err)
	}
	defer r.Close()
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read gzip: %v", err)
	}
	return string(content), nil
}

func sysFileRead(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	return string(content), nil
}

func sysFileWrite(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %v", err)
	}
	return nil
}

func sysFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sysFileDelete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func sysJSONParse(data string) (any, error) {
	var result any
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %v", err)
	}
	return convertJSONValue(result), nil
}

func sysJSONGenerate(value any) (string, error) {
	data, err := json.Marshal(convertToJSONValue(value))
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %v", err)
	}
	return string(data), nil
}

// convertJSONValue converts a decoded JSON value into the Language's own
// runtime representation: whole-number float64s become Integer (int64),
// JSON arrays become a plain []any an Array instance's Set loop can adopt.
func convertJSONValue(value any) any {
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	case []any:
		elements := make([]any, len(v))
		for i, elem := range v {
			elements[i] = convertJSONValue(elem)
		}
		return elements
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = convertJSONValue(val)
		}
		return result
	default:
		return v
	}
}

func convertToJSONValue(value any) any {
	switch v := value.(type) {
	case []any:
		result := make([]any, len(v))
		for i, elem := range v {
			result[i] = convertToJSONValue(elem)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = convertToJSONValue(val)
		}
		return result
	default:
		return v
	}
}

func sysRegexMatch(pattern, text string) (bool, error) {
	matched, err := regexp.MatchString(pattern, text)
	if err != nil {
		return false, fmt.Errorf("invalid regex pattern: %v", err)
	}
	return matched, nil
}

func sysRegexFindAll(pattern, text string) (any, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %v", err)
	}
	matches := re.FindAllString(text, -1)
	elements := make([]any, len(matches))
	for i, m := range matches {
		elements[i] = m
	}
	return elements, nil
}

func sysRegexReplace(pattern, text, replacement string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex pattern: %v", err)
	}
	return re.ReplaceAllString(text, replacement), nil
}

func sysRandomInt(min, max int64) (int64, error) {
	if min > max {
		return 0, fmt.Errorf("min must be <= max")
	}
	diff := max - min + 1
	n, err := rand.Int(rand.Reader, big.NewInt(diff))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %v", err)
	}
	return n.Int64() + min, nil
}

func sysRandomFloat() (float64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return 0, fmt.Errorf("failed to generate random float: %v", err)
	}
	n := uint64(buf[0])<<56 | uint64(buf[1])<<48 | uint64(buf[2])<<40 | uint64(buf[3])<<32 |
		uint64(buf[4])<<24 | uint64(buf[5])<<16 | uint64(buf[6])<<8 | uint64(buf[7])
	return float64(n>>11) / float64(uint64(1)<<53), nil
}

func sysRandomBytes(length int64) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func sysDateNow() int64 { return time.Now().Unix() }

func sysDateFormat(timestamp int64, format string) string {
	t := time.Unix(timestamp, 0)
	switch format {
	case "iso8601", "ISO8601", "rfc3339", "RFC3339":
		return t.Format(time.RFC3339)
	case "date":
		return t.Format("2006-01-02")
	case "time":
		return t.Format("15:04:05")
	case "datetime":
		return t.Format("2006-01-02 15:04:05")
	default:
		return t.Format(format)
	}
}

func sysDateParse(dateStr, format string) (int64, error) {
	var t time.Time
	var err error
	switch format {
	case "iso8601", "ISO8601", "rfc3339", "RFC3339":
		t, err = time.Parse(time.RFC3339, dateStr)
	case "date":
		t, err = time.Parse("2006-01-02", dateStr)
	case "time":
		t, err = time.Parse("15:04:05", dateStr)
	case "datetime":
		t, err = time.Parse("2006-01-02 15:04:05", dateStr)
	default:
		t, err = time.Parse(format, dateStr)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to parse date: %v", err)
	}
	return t.Unix(), nil
}

func sysTimeYear(ts int64) int64   { return int64(time.Unix(ts, 0).Year()) }
func sysTimeMonth(ts int64) int64  { return int64(time.Unix(ts, 0).Month()) }
func sysTimeDay(ts int64) int64    { return int64(time.Unix(ts, 0).Day()) }
func sysTimeHour(ts int64) int64   { return int64(time.Unix(ts, 0).Hour()) }
func sysTimeMinute(ts int64) int64 { return int64(time.Unix(ts, 0).Minute()) }
func sysTimeSecond(ts int64) int64 { return int64(time.Unix(ts, 0).Second()) }
