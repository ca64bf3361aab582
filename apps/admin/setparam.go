package main

import "context"

func (cli *commandLine) setParam(name string, value int) error {
	return cli.paramSvc.SetInt(context.Background(), name, value)
}
