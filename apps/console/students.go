package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/masomo-console/core/guard"
	"github.com/trezcool/masomo-console/core/student"
)

func (cli *commandLine) runStudents(ctx context.Context, args []string) error {
	if err := cli.open(guard.PathStudents); err != nil {
		return err
	}
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	switch args[0] {
	case "list":
		if !cli.students.FetchAll(ctx) {
			return errFailed
		}
		cli.printStudents()
		return nil
	case "add":
		return cli.addStudent(ctx, args[1:])
	case "edit":
		return cli.editStudent(ctx, args[1:])
	case "delete":
		return cli.deleteStudent(ctx, args[1:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) printStudents() {
	records := cli.students.Records()
	fmt.Fprintln(cli.out, cli.title.Render("Students Directory"))
	if len(records) == 0 {
		fmt.Fprintln(cli.out, "No students found.")
		return
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tCOURSE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", rec.ID, rec.Name, rec.Age, rec.Course)
	}
	_ = tw.Flush()
}

func (cli *commandLine) submitStudent(ctx context.Context, form student.Form) error {
	if cli.students.Submit(ctx, form) {
		cli.printStudents()
		return nil
	}
	for _, fe := range cli.students.FieldErrors() {
		fmt.Fprintf(cli.out, "%s: %s\n", fe.Field, fe.Error)
	}
	return errFailed
}

func (cli *commandLine) addStudent(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("students add")
	name := fs.String("name", "", "The student's full name.")
	age := fs.String("age", "", "The student's age.")
	course := fs.String("course", "", "The student's course.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	cli.students.OpenCreate()
	return cli.submitStudent(ctx, student.Form{Name: *name, Age: *age, Course: *course})
}

func (cli *commandLine) editStudent(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("students edit")
	id := fs.String("id", "", "The student's id.")
	name := fs.String("name", "", "The new full name.")
	age := fs.String("age", "", "The new age.")
	course := fs.String("course", "", "The new course.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	if !cli.students.FetchAll(ctx) {
		return errFailed
	}
	rec, ok := cli.students.Find(student.ID(*id))
	if !ok {
		return fmt.Errorf("student %s not found", *id)
	}

	form := student.FormFrom(rec)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			form.Name = *name
		case "age":
			form.Age = *age
		case "course":
			form.Course = *course
		}
	})

	cli.students.OpenEdit(rec)
	return cli.submitStudent(ctx, form)
}

func (cli *commandLine) deleteStudent(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("students delete")
	id := fs.String("id", "", "The student's id.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	confirm := cli.confirm
	if *yes {
		confirm = func(string) bool { return true }
	}
	if !cli.students.Delete(ctx, student.ID(*id), confirm) {
		return errFailed
	}
	cli.printStudents()
	return nil
}
