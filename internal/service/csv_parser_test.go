package service

import (
	"reflect"
	"testing"
)

func TestParseCSVLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"普通字段", "a,b,c", []string{"a", "b", "c"}},
		{"引号内逗号", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"去除首尾空白", "  Alaoui , Sara ,CM2 ", []string{"Alaoui", "Sara", "CM2"}},
		{"空字段", "a,,c,", []string{"a", "", "c", ""}},
		{"空行", "", []string{""}},
		{"引号未闭合", `a,"unterminated`, []string{"a", "unterminated"}},
		{"引号未闭合吞并逗号", `a,"b,c`, []string{"a", "b,c"}},
		{"不支持双引号转义", `"say ""hi""",x`, []string{"say hi", "x"}},
		{"金额含千分位", `M1,"1 500,50"`, []string{"M1", "1 500,50"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCSVLine(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("期望 %q，实际 %q", tt.want, got)
			}
		})
	}
}

func TestSplitCSVLines(t *testing.T) {
	text := "\ufeffnom,prenom\r\nAlaoui,Sara\r\n\r\n   \nBennani,Omar"
	got := SplitCSVLines(text)
	want := []string{"nom,prenom", "Alaoui,Sara", "Bennani,Omar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %q，实际 %q", want, got)
	}

	numbered := splitNumberedLines(text)
	if len(numbered) != 3 || numbered[2].no != 5 {
		t.Errorf("行号应保留原始位置，实际 %+v", numbered)
	}

	if len(SplitCSVLines("")) != 0 {
		t.Error("空文本应返回空切片")
	}
}
