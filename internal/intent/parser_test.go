package intent

import "testing"

func TestParse_SlashCommandWins(t *testing.T) {
	task := Parse("/fix the login crash")
	if task.TaskType != TaskFixBug {
		t.Fatalf("expected %s, got %s", TaskFixBug, task.TaskType)
	}
}

func TestParse_KeywordMatch(t *testing.T) {
	task := Parse("build a new auth flow")
	if task.TaskType != TaskBuildFeature {
		t.Fatalf("expected %s, got %s", TaskBuildFeature, task.TaskType)
	}
}

func TestParse_VerbAtStartIsWeighted(t *testing.T) {
	// "fix" opens the sentence so FIX_BUG should win over a single
	// incidental "optimize" token elsewhere.
	task := Parse("fix the optimize flag parsing")
	if task.TaskType != TaskFixBug {
		t.Fatalf("expected %s, got %s", TaskFixBug, task.TaskType)
	}
}

func TestParse_UnparseableIsGeneric(t *testing.T) {
	task := Parse("xyzzy plugh")
	if task.TaskType != TaskGeneric {
		t.Fatalf("expected %s, got %s", TaskGeneric, task.TaskType)
	}
}

func TestParse_QuotedSubstringBecomesSubject(t *testing.T) {
	task := Parse(`build "user profile page" now`)
	if task.Params["subject"] != "user profile page" {
		t.Fatalf("unexpected subject: %q", task.Params["subject"])
	}
}

func TestParse_StopwordStrippedSubject(t *testing.T) {
	task := Parse("please fix the broken login")
	if task.Params["subject"] == "" {
		t.Fatal("expected non-empty subject")
	}
	if task.Params["subject"] == task.RawQuery {
		t.Fatal("expected stopwords to be stripped")
	}
}

func TestParse_DestructiveFlagging(t *testing.T) {
	cases := map[TaskType]bool{
		TaskBuildFeature: true,
		TaskRefactor:     true,
		TaskOptimize:     true,
		TaskFixBug:       true,
		TaskDeploy:       true,
		TaskScan:         false,
		TaskGeneric:      false,
	}
	for taskType, want := range cases {
		if got := taskType.IsDestructive(); got != want {
			t.Errorf("%s.IsDestructive() = %v, want %v", taskType, got, want)
		}
	}
}

func TestParse_IsIdempotent(t *testing.T) {
	original := Parse("refactor the payment module")
	reparsed := Parse(original.RawQuery)

	if original.TaskType != reparsed.TaskType {
		t.Fatalf("task type changed on reparse: %s vs %s", original.TaskType, reparsed.TaskType)
	}
	if original.Params["subject"] != reparsed.Params["subject"] {
		t.Fatalf("subject changed on reparse: %q vs %q", original.Params["subject"], reparsed.Params["subject"])
	}
}
